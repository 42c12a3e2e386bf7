// Package compiler parses CUE entity-kind declarations into schema values.
// Integrators declare store schemas in CUE files rather than Go code; the
// compiler uses the CUE SDK's Go API directly (not a CLI subprocess).
package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/graft/internal/attr"
	"github.com/roach88/graft/internal/schema"
)

// CompileError is a structured compilation failure with CUE position info.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CompileSchema parses every declaration under the top-level "entity"
// struct and builds a validated schema.
//
// The expected CUE shape:
//
//	entity: Customer: {
//		id: "customerID"
//		properties: {
//			customerID: {type: "attribute", attr: "string"}
//			orders:     {type: "toMany", target: "Order"}
//		}
//	}
func CompileSchema(v cue.Value) (*schema.Schema, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	entities := v.LookupPath(cue.ParsePath("entity"))
	if !entities.Exists() {
		return nil, &CompileError{
			Field:   "entity",
			Message: "no entity declarations found",
			Pos:     v.Pos(),
		}
	}

	iter, err := entities.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var kinds []*schema.Entity
	for iter.Next() {
		kind, err := CompileEntity(iter.Value())
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}

	sch, err := schema.New(kinds...)
	if err != nil {
		return nil, &CompileError{
			Field:   "entity",
			Message: err.Error(),
			Pos:     entities.Pos(),
		}
	}
	return sch, nil
}

// CompileEntity parses a single entity-kind declaration.
func CompileEntity(v cue.Value) (*schema.Entity, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	kind := &schema.Entity{}

	// Kind name comes from the struct label (the path selector)
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		kind.Name = labels[len(labels)-1].String()
	}

	if parentVal := v.LookupPath(cue.ParsePath("parent")); parentVal.Exists() {
		parent, err := parentVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		kind.Parent = parent
	}

	idVal := v.LookupPath(cue.ParsePath("id"))
	if !idVal.Exists() {
		return nil, &CompileError{
			Field:   kind.Name + ".id",
			Message: "id (identifier attribute name) is required",
			Pos:     v.Pos(),
		}
	}
	idAttr, err := idVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	kind.IDAttribute = idAttr

	props, err := parseProperties(v, kind.Name)
	if err != nil {
		return nil, err
	}
	kind.Properties = props

	return kind, nil
}

// parseProperties parses the properties struct of a kind declaration.
func parseProperties(v cue.Value, kindName string) ([]schema.Property, error) {
	propsVal := v.LookupPath(cue.ParsePath("properties"))
	if !propsVal.Exists() {
		return nil, nil
	}

	iter, err := propsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var props []schema.Property
	for iter.Next() {
		prop, err := parseProperty(iter.Value(), kindName, iter.Selector().String())
		if err != nil {
			return nil, err
		}
		props = append(props, prop)
	}
	return props, nil
}

func parseProperty(v cue.Value, kindName, propName string) (schema.Property, error) {
	prop := schema.Property{Name: propName}
	field := kindName + ".properties." + propName

	typeVal := v.LookupPath(cue.ParsePath("type"))
	if !typeVal.Exists() {
		return prop, &CompileError{
			Field:   field,
			Message: "type is required (attribute, toOne, toMany, toManyOrdered)",
			Pos:     v.Pos(),
		}
	}
	typeStr, err := typeVal.String()
	if err != nil {
		return prop, formatCUEError(err)
	}

	switch typeStr {
	case "attribute":
		prop.Kind = schema.Attribute
	case "toOne":
		prop.Kind = schema.ToOne
	case "toMany":
		prop.Kind = schema.ToMany
	case "toManyOrdered":
		prop.Kind = schema.ToManyOrdered
	default:
		return prop, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("unknown property type %q", typeStr),
			Pos:     typeVal.Pos(),
		}
	}

	if prop.Kind == schema.Attribute {
		attrVal := v.LookupPath(cue.ParsePath("attr"))
		if !attrVal.Exists() {
			return prop, &CompileError{
				Field:   field,
				Message: "attr (primitive type) is required for attributes",
				Pos:     v.Pos(),
			}
		}
		attrStr, err := attrVal.String()
		if err != nil {
			return prop, formatCUEError(err)
		}
		kind, err := attr.ParseKind(attrStr)
		if err != nil {
			return prop, &CompileError{
				Field:   field,
				Message: err.Error(),
				Pos:     attrVal.Pos(),
			}
		}
		prop.Attr = kind
	} else {
		targetVal := v.LookupPath(cue.ParsePath("target"))
		if !targetVal.Exists() {
			return prop, &CompileError{
				Field:   field,
				Message: "target (entity kind) is required for relationships",
				Pos:     v.Pos(),
			}
		}
		target, err := targetVal.String()
		if err != nil {
			return prop, formatCUEError(err)
		}
		prop.Target = target
	}

	if optVal := v.LookupPath(cue.ParsePath("optional")); optVal.Exists() {
		opt, err := optVal.Bool()
		if err != nil {
			return prop, formatCUEError(err)
		}
		prop.Optional = opt
	}

	return prop, nil
}

// formatCUEError converts a CUE error into a CompileError with position.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
