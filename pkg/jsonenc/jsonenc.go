// Package jsonenc extends encoding/json with two value types it does not
// render the way REST APIs here expect: date-times are written as ISO-8601
// text with microsecond precision, and UUIDs as 32 hexadecimal characters
// without dashes. Every other value is encoded with encoding/json semantics
// (struct tags, embedding, json.Marshaler), including its
// *json.UnsupportedTypeError for channels, functions and complex numbers.
package jsonenc

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"time"
	"unsafe"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/modern-go/reflect2"
)

const (
	isoLayout      = "2006-01-02T15:04:05-07:00"
	isoMicroLayout = "2006-01-02T15:04:05.000000-07:00"

	maxDepth = 1000
)

// ErrTooDeep is returned for values nested deeper than the encoder walks,
// which in practice means a reference cycle.
var ErrTooDeep = errors.New("value nested too deeply")

var (
	timeType = reflect.TypeOf((*time.Time)(nil)).Elem()
	uuidType = reflect.TypeOf((*uuid.UUID)(nil)).Elem()
)

// api mirrors jsoniter.ConfigCompatibleWithStandardLibrary with the extended
// types registered on it only, so other jsoniter users are unaffected.
var api = newAPI()

func newAPI() jsoniter.API {
	cfg := jsoniter.Config{
		EscapeHTML:             true,
		SortMapKeys:            true,
		ValidateJsonRawMessage: true,
	}.Froze()
	cfg.RegisterExtension(&extension{})

	return cfg
}

// FormatTime renders t as ISO-8601. The fraction is written with microsecond
// precision and omitted when zero; the offset is always present.
func FormatTime(t time.Time) string {
	if t.Nanosecond()/int(time.Microsecond) == 0 {
		return t.Format(isoLayout)
	}

	return t.Format(isoMicroLayout)
}

// FormatUUID renders id as 32 lowercase hexadecimal characters.
func FormatUUID(id uuid.UUID) string {
	return hex.EncodeToString(id[:])
}

// Marshal returns the JSON encoding of v.
func Marshal(v any) ([]byte, error) {
	stream := api.BorrowStream(nil)
	defer api.ReturnStream(stream)

	stream.Attachment = &nesting{}
	stream.WriteVal(v)

	if stream.Error != nil {
		return nil, fmt.Errorf("jsonenc: %w", stream.Error)
	}

	return append([]byte(nil), stream.Buffer()...), nil
}

// Encoder writes extended JSON values to an output stream.
type Encoder struct {
	w              io.Writer
	prefix, indent string
}

// NewEncoder returns an encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// SetIndent behaves like json.Encoder.SetIndent.
func (e *Encoder) SetIndent(prefix, indent string) {
	e.prefix, e.indent = prefix, indent
}

// Encode writes v followed by a newline.
func (e *Encoder) Encode(v any) error {
	data, err := Marshal(v)
	if err != nil {
		return err
	}

	if e.prefix != "" || e.indent != "" {
		var out bytes.Buffer

		err = json.Indent(&out, data, e.prefix, e.indent)
		if err != nil {
			return fmt.Errorf("jsonenc: %w", err)
		}

		data = out.Bytes()
	}

	_, err = e.w.Write(append(data, '\n'))
	if err != nil {
		return fmt.Errorf("jsonenc: %w", err)
	}

	return nil
}

// nesting counts the containers currently open on a stream.
type nesting struct {
	depth int
}

// extension plugs the extended types into jsoniter.
type extension struct {
	jsoniter.DummyExtension
}

func (*extension) CreateEncoder(typ reflect2.Type) jsoniter.ValEncoder {
	rt := typ.Type1()

	switch {
	case rt == timeType:
		return timeEncoder{}
	case rt == uuidType:
		return uuidEncoder{}
	case rt.Kind() == reflect.Pointer && rt.Elem() == timeType:
		return timePtrEncoder{}
	case rt.Kind() == reflect.Pointer && rt.Elem() == uuidType:
		return uuidPtrEncoder{}
	}

	switch rt.Kind() {
	case reflect.Chan, reflect.Func, reflect.Complex64, reflect.Complex128, reflect.UnsafePointer:
		return unsupportedEncoder{typ: rt}
	default:
		return nil
	}
}

func (*extension) CreateMapKeyEncoder(typ reflect2.Type) jsoniter.ValEncoder {
	if typ.Type1() == uuidType {
		return uuidEncoder{}
	}

	return nil
}

// DecorateEncoder bounds the nesting of pointers, maps and slices.
func (*extension) DecorateEncoder(typ reflect2.Type, encoder jsoniter.ValEncoder) jsoniter.ValEncoder {
	switch typ.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice:
		return depthEncoder{inner: encoder}
	default:
		return encoder
	}
}

type timeEncoder struct{}

func (timeEncoder) IsEmpty(unsafe.Pointer) bool { return false }

func (timeEncoder) Encode(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	stream.WriteString(FormatTime(*(*time.Time)(ptr)))
}

type timePtrEncoder struct{}

func (timePtrEncoder) IsEmpty(ptr unsafe.Pointer) bool { return *(**time.Time)(ptr) == nil }

func (timePtrEncoder) Encode(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	t := *(**time.Time)(ptr)
	if t == nil {
		stream.WriteNil()

		return
	}

	stream.WriteString(FormatTime(*t))
}

type uuidEncoder struct{}

func (uuidEncoder) IsEmpty(unsafe.Pointer) bool { return false }

func (uuidEncoder) Encode(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	stream.WriteString(FormatUUID(*(*uuid.UUID)(ptr)))
}

type uuidPtrEncoder struct{}

func (uuidPtrEncoder) IsEmpty(ptr unsafe.Pointer) bool { return *(**uuid.UUID)(ptr) == nil }

func (uuidPtrEncoder) Encode(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	id := *(**uuid.UUID)(ptr)
	if id == nil {
		stream.WriteNil()

		return
	}

	stream.WriteString(FormatUUID(*id))
}

// unsupportedEncoder reports the error encoding/json gives for typ.
type unsupportedEncoder struct {
	typ reflect.Type
}

func (unsupportedEncoder) IsEmpty(unsafe.Pointer) bool { return false }

func (e unsupportedEncoder) Encode(_ unsafe.Pointer, stream *jsoniter.Stream) {
	if stream.Error == nil {
		stream.Error = &json.UnsupportedTypeError{Type: e.typ}
	}
}

type depthEncoder struct {
	inner jsoniter.ValEncoder
}

func (e depthEncoder) IsEmpty(ptr unsafe.Pointer) bool { return e.inner.IsEmpty(ptr) }

func (e depthEncoder) Encode(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	n, ok := stream.Attachment.(*nesting)
	if !ok {
		e.inner.Encode(ptr, stream)

		return
	}

	if stream.Error != nil {
		return
	}

	if n.depth >= maxDepth {
		stream.Error = ErrTooDeep

		return
	}

	n.depth++
	e.inner.Encode(ptr, stream)
	n.depth--
}
