// Package types implements the type-tag system used to describe and
// validate native function signatures (spec.md section 4.5, component
// C7). A TypeTag is a bitset: one bit per obj.Kind in the low bits, plus
// a handful of modifier flags in the high bits (ALLOW_NULL, LISTIFY,
// GLOB, COMPLEX) that describe how a parameter accepts or coerces a
// value rather than which kind it is.
package types

import "github.com/muonlang/mbi/internal/obj"

// TypeTag is a bitset over obj.Kind plus modifier flags. Kinds occupy
// the low bits (obj.Kind values run 0..32), below kindBits; modifiers
// start at bit 48.
type TypeTag uint64

const kindBits = 48

// TagFor returns the single-kind bit for k.
func TagFor(k obj.Kind) TypeTag {
	return TypeTag(1) << uint(k)
}

// Or combines tags, accepting any-of the listed kinds/tags.
func (t TypeTag) Or(other TypeTag) TypeTag { return t | other }

// Has reports whether t accepts handle kind k (ignoring modifiers).
func (t TypeTag) Has(k obj.Kind) bool {
	return t&TagFor(k) != 0
}

// Modifier flags, per spec.md section 4.5.
const (
	AllowNull TypeTag = 1 << (kindBits + iota) // accepts obj.KindNull in addition to the listed kinds
	Listify                                    // a bare scalar argument is implicitly wrapped in a one-element array
	Glob                                       // this is the last formal and consumes all remaining positional args
	Complex                                    // composite value whose element/member types aren't tracked by this bitset
)

func (t TypeTag) allowNull() bool { return t&AllowNull != 0 }
func (t TypeTag) listify() bool   { return t&Listify != 0 }
func (t TypeTag) glob() bool      { return t&Glob != 0 }

// Common single-kind tags used throughout the registry and builtins.
var (
	TBool       = TagFor(obj.KindBool)
	TNumber     = TagFor(obj.KindNumber)
	TString     = TagFor(obj.KindString)
	TFile       = TagFor(obj.KindFile)
	TArray      = TagFor(obj.KindArray)
	TDict       = TagFor(obj.KindDict)
	TFeatureOpt = TagFor(obj.KindFeatureOpt)

	TBuildTarget      = TagFor(obj.KindBuildTarget)
	TCustomTarget     = TagFor(obj.KindCustomTarget)
	TAliasTarget      = TagFor(obj.KindAliasTarget)
	TBothLibs         = TagFor(obj.KindBothLibs)
	TDependency       = TagFor(obj.KindDependency)
	TExternalProgram  = TagFor(obj.KindExternalProgram)
	TIncludeDirectory = TagFor(obj.KindIncludeDirectory)
	TGenerator        = TagFor(obj.KindGenerator)
	TGeneratedList    = TagFor(obj.KindGeneratedList)
	TInstallTarget    = TagFor(obj.KindInstallTarget)
	TSourceSet        = TagFor(obj.KindSourceSet)
	TTest             = TagFor(obj.KindTest)
	TRunResult        = TagFor(obj.KindRunResult)
	TEnvironment      = TagFor(obj.KindEnvironment)
	TConfigData       = TagFor(obj.KindConfigurationData)
	TCompiler         = TagFor(obj.KindCompiler)
	TMachine          = TagFor(obj.KindMachine)
	TSubproject       = TagFor(obj.KindSubproject)
	TModule           = TagFor(obj.KindModule)
	TFunc             = TagFor(obj.KindFunc)
	TDisabler         = TagFor(obj.KindDisabler)

	// TAny accepts any non-none, non-disabler kind; disabler short-
	// circuits before Typecheck runs (see PopArgs in pop_args.go).
	TAny = computeAny()

	// TLinkable is the union spec.md section 9 uses for link_with-style
	// arguments: anything that can appear on a linker command line.
	TLinkable = TBuildTarget | TCustomTarget | TAliasTarget | TBothLibs

	// TSourceLike unions the kinds that can appear in a target's source
	// list before Listify wrapping.
	TSourceLike = TString | TFile | TCustomTarget | TGeneratedList | TGenerator
)

func computeAny() TypeTag {
	var t TypeTag
	for k := obj.Kind(1); k < obj.Kind(kindBits); k++ {
		if k.String() == "unknown" {
			break
		}
		switch k {
		case obj.KindDisabler, obj.KindCapture, obj.KindTypeInfo:
			continue
		}
		t |= TagFor(k)
	}
	return t
}

// Typecheck reports whether h's runtime kind satisfies tag. AllowNull
// admits obj.KindNull regardless of which kind bits are set. Disabler
// values are expected to be intercepted by PopArgs before Typecheck
// runs (spec.md section 4.5's disabler short-circuit), so a bare
// Typecheck call against a disabler fails unless TDisabler is
// explicitly part of tag.
func Typecheck(h obj.Handle, tag TypeTag) bool {
	k := h.Kind()
	if k == obj.KindNull && tag.allowNull() {
		return true
	}
	return tag.Has(k)
}

// KindName renders a TypeTag's kind bits for error messages, e.g.
// "string|file|custom_target".
func (t TypeTag) KindName() string {
	s := ""
	for k := obj.Kind(0); k < obj.Kind(kindBits); k++ {
		if k.String() == "unknown" {
			break
		}
		if t.Has(k) {
			if s != "" {
				s += "|"
			}
			s += k.String()
		}
	}
	if s == "" {
		return "none"
	}
	return s
}
