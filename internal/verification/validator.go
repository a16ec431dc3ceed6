// Package verification validates the organizer field-verification document,
// either whole or one field at a time for live feedback.
package verification

import (
	"encoding/json"
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/NirmalKumar12345/athilitics-web-sub001/internal/apperror"
	"github.com/NirmalKumar12345/athilitics-web-sub001/internal/model"
)

// ErrUnknownField is returned by the per-field entry points when the path
// does not name a field of the document.
var ErrUnknownField = errors.New("unknown field")

const (
	idNumberPath = "organizer_verification.id_proof.id_number"
	msgInvalid   = "Invalid value"
)

var (
	mobilePattern = regexp.MustCompile(`^[6-9]\d{9}$`)
	pathIndex     = regexp.MustCompile(`\[(\d+)\]`)
)

// FullNameValidator requires at least two space separated name parts.
var FullNameValidator = func(fl validator.FieldLevel) bool {
	return len(strings.Fields(fl.Field().String())) >= 2
}

// MobileValidator accepts 10-digit Indian mobile numbers.
var MobileValidator = func(fl validator.FieldLevel) bool {
	return mobilePattern.MatchString(fl.Field().String())
}

// JSONTagName makes validator namespaces use json field names.
func JSONTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

type fieldSchema struct {
	typ reflect.Type
	tag string
}

// Validator checks model.Document values.
type Validator struct {
	validate *validator.Validate
	fields   map[string]fieldSchema
}

// New registers the document rules on validate and returns a Validator using it.
func New(validate *validator.Validate) (*Validator, error) {
	validate.RegisterTagNameFunc(JSONTagName)
	if err := validate.RegisterValidation("fullname", FullNameValidator); err != nil {
		return nil, err
	}
	if err := validate.RegisterValidation("mobile", MobileValidator); err != nil {
		return nil, err
	}
	validate.RegisterStructValidation(idProofStructLevel, model.IDProof{})

	fields := make(map[string]fieldSchema)
	collectFields(reflect.TypeOf(model.Document{}), "", fields)
	return &Validator{validate: validate, fields: fields}, nil
}

// idProofStructLevel applies the id_number format that depends on id_type.
// An empty id_number is left to the field's own required rule.
func idProofStructLevel(sl validator.StructLevel) {
	proof := sl.Current().Interface().(model.IDProof)
	if proof.IDNumber == "" {
		return
	}
	if msg := ValidateIDNumber(proof.IDType, proof.IDNumber); msg != "" {
		sl.ReportError(proof.IDNumber, "id_number", "IDNumber", apperror.TagIDNumber, msg)
	}
}

// ValidateDocument validates every rule of doc and returns one message per
// invalid field, keyed by flattened field key. A nil doc is validated as an
// empty document. The map is empty when doc is valid.
func (v *Validator) ValidateDocument(doc *model.Document) map[string]string {
	if doc == nil {
		doc = &model.Document{}
	}
	if err := v.validate.Struct(doc); err != nil {
		return apperror.CustomValidationError(err)
	}
	return map[string]string{}
}

// ValidateField validates value as the field at path on its own. path is
// dot separated; array elements may be addressed as "venue_photos.0" or
// "venue_photos[0]". It returns "" when the value passes.
func (v *Validator) ValidateField(path string, value any) (string, error) {
	schemaPath, key := normalizePath(path)
	f, ok := v.fields[schemaPath]
	if !ok {
		return "", ErrUnknownField
	}
	typ := f.typ
	if typ.Kind() == reflect.Slice && isIndex(lastSegment(key)) {
		typ = typ.Elem()
	}

	target := reflect.New(typ)
	raw, err := json.Marshal(value)
	if err != nil {
		return msgInvalid, nil
	}
	if err := json.Unmarshal(raw, target.Interface()); err != nil {
		return msgInvalid, nil
	}
	field := target.Elem().Interface()

	if typ.Kind() == reflect.Struct {
		return v.firstStructError(schemaPath, field), nil
	}

	if err := v.validate.Var(field, varTag(f.tag)); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperror.Message(schemaPath, verrs[0].Tag(), verrs[0].Param()), nil
		}
		return msgInvalid, nil
	}
	if typ.Kind() == reflect.Slice && typ.Elem().Kind() == reflect.Struct && strings.Contains(f.tag, "dive") {
		elems := reflect.ValueOf(field)
		for i := 0; i < elems.Len(); i++ {
			if msg := v.firstStructError(schemaPath, elems.Index(i).Interface()); msg != "" {
				return msg, nil
			}
		}
	}

	// Without the rest of the document id_number has no id_type to check
	// against. Use ValidateFieldInDocument for that.
	if schemaPath == idNumberPath {
		s, _ := field.(string)
		return ValidateIDNumber("", s), nil
	}
	return "", nil
}

// ValidateFieldInDocument validates doc and returns the message for the field
// at path, so rules that look at sibling fields apply.
func (v *Validator) ValidateFieldInDocument(doc *model.Document, path string) (string, error) {
	schemaPath, key := normalizePath(path)
	if _, ok := v.fields[schemaPath]; !ok {
		return "", ErrUnknownField
	}
	return v.ValidateDocument(doc)[key], nil
}

// Fields lists the schema paths ValidateField understands.
func (v *Validator) Fields() []string {
	paths := make([]string, 0, len(v.fields))
	for p := range v.fields {
		paths = append(paths, p)
	}
	return paths
}

func (v *Validator) firstStructError(prefix string, value any) string {
	err := v.validate.Struct(value)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return msgInvalid
	}
	_, rel := apperror.FlattenNamespace(verrs[0].Namespace())
	return apperror.Message(prefix+"."+rel, verrs[0].Tag(), verrs[0].Param())
}

// collectFields records every field of t by schema path. Slice elements share
// the slice's path.
func collectFields(t reflect.Type, prefix string, out map[string]fieldSchema) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		name := JSONTagName(sf)
		if name == "" {
			continue
		}
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}
		out[path] = fieldSchema{typ: sf.Type, tag: sf.Tag.Get("validate")}

		switch {
		case sf.Type.Kind() == reflect.Struct:
			collectFields(sf.Type, path, out)
		case sf.Type.Kind() == reflect.Slice && sf.Type.Elem().Kind() == reflect.Struct:
			collectFields(sf.Type.Elem(), path, out)
		}
	}
}

// normalizePath returns the schema path (indices dropped) and the flat error
// key (indices kept) for a dotted or bracketed field path.
func normalizePath(path string) (schemaPath, key string) {
	path = pathIndex.ReplaceAllString(strings.TrimSpace(path), ".$1")
	parts := strings.Split(path, ".")
	schema := make([]string, 0, len(parts))
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		keys = append(keys, p)
		if !isIndex(p) {
			schema = append(schema, p)
		}
	}
	return strings.Join(schema, "."), strings.Join(keys, "_")
}

func lastSegment(key string) string {
	if i := strings.LastIndexByte(key, '_'); i >= 0 {
		return key[i+1:]
	}
	return key
}

func isIndex(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// varTag drops the element rules of a slice tag; Var checks the slice itself.
func varTag(tag string) string {
	if i := strings.Index(tag, ",dive"); i >= 0 {
		return tag[:i]
	}
	return tag
}
