package ifmap

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"ifmap2json/pkg/models"
)

// SeqKey is the attribute injected into every resultItem.
const SeqKey = "_seq"

var resultItemTag = regexp.MustCompile(`<((?:[A-Za-z_][\w.-]*:)?resultItem)([\s/>])`)

// TagResultItems numbers every resultItem opening tag in document order so
// the order survives the grouping done by the generic conversion.
func TagResultItems(raw []byte) []byte {
	n := 0
	return resultItemTag.ReplaceAllFunc(raw, func(match []byte) []byte {
		n++
		sub := resultItemTag.FindSubmatch(match)
		var buf bytes.Buffer
		buf.WriteByte('<')
		buf.Write(sub[1])
		buf.WriteString(` ` + SeqKey + `="` + strconv.Itoa(n) + `"`)
		buf.Write(sub[2])
		return buf.Bytes()
	})
}

// Normalize converts a poll response into nested maps, sequences and strings.
func Normalize(raw []byte) (map[string]interface{}, error) {
	dec := xml.NewDecoder(bytes.NewReader(TagResultItems(raw)))
	dec.Strict = true

	root := &element{}
	stack := []*element{root}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, newElement(t))
		case xml.EndElement:
			el := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			stack[len(stack)-1].addChild(el.key, el.value())
		case xml.CharData:
			stack[len(stack)-1].text.Write(t)
		}
	}
	if len(stack) != 1 {
		return nil, fmt.Errorf("%w: unexpected end of document", ErrMalformedDocument)
	}
	if len(root.fields) == 0 {
		return nil, fmt.Errorf("%w: no root element", ErrMalformedDocument)
	}
	return root.fields, nil
}

type element struct {
	key    string
	fields map[string]interface{}
	text   strings.Builder
}

func newElement(start xml.StartElement) *element {
	el := &element{key: normalizeName(start.Name.Local)}
	for _, attr := range start.Attr {
		el.set(attrKey(attr), attr.Value)
	}
	return el
}

func (e *element) set(key string, value interface{}) {
	if e.fields == nil {
		e.fields = make(map[string]interface{})
	}
	e.fields[key] = value
}

func (e *element) addChild(key string, value interface{}) {
	existing, ok := e.fields[key]
	if !ok {
		e.set(key, value)
		return
	}
	if list, ok := existing.([]interface{}); ok {
		e.fields[key] = append(list, value)
		return
	}
	e.fields[key] = []interface{}{existing, value}
}

func (e *element) value() interface{} {
	text := strings.TrimSpace(e.text.String())
	if len(e.fields) == 0 {
		if text == "" {
			return nil
		}
		return text
	}
	if text != "" {
		e.fields[models.TextKey] = text
	}
	return e.fields
}

func attrKey(attr xml.Attr) string {
	switch {
	case attr.Name.Space == "xmlns":
		return "xmlns:" + attr.Name.Local
	case attr.Name.Space == "" && attr.Name.Local == "xmlns":
		return "xmlns"
	default:
		return normalizeName(attr.Name.Local)
	}
}

func normalizeName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}
