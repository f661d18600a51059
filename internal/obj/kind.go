// Package obj implements the runtime object model: a handle-indexed arena
// holding every value the virtual machine can produce, per the object
// handle design in spec.md section 3.
package obj

// Kind is the runtime discriminant for a Handle. It occupies the top byte
// of the handle so a Handle's type can be read without an arena lookup.
type Kind uint8

const (
	KindNone Kind = iota // the zero Kind; Handle(0) is the sentinel "none/void"
	KindNull
	KindBool
	KindDisabler
	KindNumber
	KindString
	KindFile
	KindFeatureOpt
	KindArray
	KindDict
	KindBuildTarget
	KindCustomTarget
	KindAliasTarget
	KindBothLibs
	KindDependency
	KindExternalProgram
	KindIncludeDirectory
	KindGenerator
	KindGeneratedList
	KindInstallTarget
	KindSourceSet
	KindSourceConfiguration
	KindTest
	KindRunResult
	KindEnvironment
	KindConfigurationData
	KindCompiler
	KindMachine
	KindSubproject
	KindModule
	KindFunc
	KindCapture
	KindTypeInfo

	kindCount
)

// String names the kind for diagnostics and TypeError messages.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

var kindNames = [...]string{
	KindNone:                "none",
	KindNull:                "null",
	KindBool:                "bool",
	KindDisabler:            "disabler",
	KindNumber:              "number",
	KindString:              "string",
	KindFile:                "file",
	KindFeatureOpt:          "feature_opt",
	KindArray:               "array",
	KindDict:                "dict",
	KindBuildTarget:         "build_target",
	KindCustomTarget:        "custom_target",
	KindAliasTarget:         "alias_target",
	KindBothLibs:            "both_libs",
	KindDependency:          "dependency",
	KindExternalProgram:     "external_program",
	KindIncludeDirectory:    "include_directory",
	KindGenerator:           "generator",
	KindGeneratedList:       "generated_list",
	KindInstallTarget:       "install_target",
	KindSourceSet:           "source_set",
	KindSourceConfiguration: "source_configuration",
	KindTest:                "test",
	KindRunResult:           "run_result",
	KindEnvironment:         "environment",
	KindConfigurationData:   "configuration_data",
	KindCompiler:            "compiler",
	KindMachine:             "machine",
	KindSubproject:          "subproject",
	KindModule:              "module",
	KindFunc:                "func",
	KindCapture:             "capture",
	KindTypeInfo:            "typeinfo",
}
