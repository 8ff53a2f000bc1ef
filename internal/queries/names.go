// Package queries names every query registered on a session context.
// Providers call each other by these names, so packages whose queries are
// mutually recursive need not import each other.
package queries

const (
	// Syntax and resources.
	GetAst                     = "getAst"
	DoesResourceExist          = "doesResourceExist"
	DoesResourceDirectoryExist = "doesResourceDirectoryExist"
	GetAllFileResourceIds      = "getAllFileResourceIds"
	GetManifest                = "getManifest"
	GetDependencies            = "getDependencies"
	GetAllDependencies         = "getAllDependencies"

	// Modules.
	ModuleIdToDeclarationId = "moduleIdToDeclarationId"
	DeclarationIdToModuleId = "declarationIdToModuleId"
	ResourceModuleId        = "resourceModuleId"
	GetUseLines             = "getUseLines"
	ResolveUseLine          = "resolveUseLine"

	// Declarations.
	GetDeclarationAst           = "getDeclarationAst"
	GetInnerDeclarationIds      = "getInnerDeclarationIds"
	DoesDeclarationExist        = "doesDeclarationExist"
	GetDeclarationHir           = "getDeclarationHir"
	GetModuleHir                = "getModuleHir"
	GetTraitHir                 = "getTraitHir"
	GetImplHir                  = "getImplHir"
	GetClassHir                 = "getClassHir"
	GetConstructorHir           = "getConstructorHir"
	GetFunctionHir              = "getFunctionHir"
	GetFunctionBody             = "getFunctionBody"
	GetPropertyHir              = "getPropertyHir"
	GetGetterHir                = "getGetterHir"
	GetSetterHir                = "getSetterHir"
	GetClassDerivedDeclarations = "getClassDerivedDeclarations"
	GetTypeParameters           = "getTypeParameters"
	ResolveTypeName             = "resolveTypeName"
	GetAllImplsInPackage        = "getAllImplsInPackage"
	GetAllImplsForTraitOrClass  = "getAllImplsForTraitOrClass"
	GetAllImplsForType          = "getAllImplsForType"
)
