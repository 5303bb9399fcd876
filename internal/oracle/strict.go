package oracle

import (
	"bytes"
	stdjson "encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	json "github.com/goccy/go-json"
)

var errTrailingData = errors.New("unexpected data after top-level value")

// jsonNode 는 키 순서를 보존하는 JSON 값이다. 숫자는 원문 표기(json.Number)로 둔다.
type jsonNode struct {
	object bool
	array  bool
	keys   []string
	fields map[string]*jsonNode
	items  []*jsonNode
	scalar any
}

// decodeStrict 는 표준 JSON 문법으로 data 를 읽어 트리로 만든다.
// 두 번째 반환값은 어느 객체에든 중복 키가 있었는지 여부다.
func decodeStrict(data []byte) (*jsonNode, bool, error) {
	dec := stdjson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	node, duplicated, err := readNode(dec)
	if err != nil {
		return nil, false, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, false, err
		}
		return nil, false, errTrailingData
	}
	return node, duplicated, nil
}

func readNode(dec *stdjson.Decoder) (*jsonNode, bool, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, false, err
	}

	delim, ok := tok.(stdjson.Delim)
	if !ok {
		return &jsonNode{scalar: tok}, false, nil
	}

	switch delim {
	case '{':
		node := &jsonNode{object: true, fields: make(map[string]*jsonNode)}
		duplicated := false
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, false, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, false, fmt.Errorf("unexpected object key %v", keyTok)
			}
			child, childDup, err := readNode(dec)
			if err != nil {
				return nil, false, err
			}
			if _, seen := node.fields[key]; seen {
				duplicated = true
			} else {
				node.keys = append(node.keys, key)
			}
			node.fields[key] = child
			duplicated = duplicated || childDup
		}
		if _, err := dec.Token(); err != nil {
			return nil, false, err
		}
		return node, duplicated, nil
	case '[':
		node := &jsonNode{array: true}
		duplicated := false
		for dec.More() {
			child, childDup, err := readNode(dec)
			if err != nil {
				return nil, false, err
			}
			node.items = append(node.items, child)
			duplicated = duplicated || childDup
		}
		if _, err := dec.Token(); err != nil {
			return nil, false, err
		}
		return node, duplicated, nil
	default:
		return nil, false, fmt.Errorf("unexpected delimiter %q", rune(delim))
	}
}

// encode 는 compact JSON 으로 쓴다. 숫자는 원문 표기 그대로 쓴다.
func (n *jsonNode) encode(buf *bytes.Buffer) error {
	switch {
	case n.object:
		buf.WriteByte('{')
		for i, key := range n.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := n.fields[key].encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case n.array:
		buf.WriteByte('[')
		for i, item := range n.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		switch v := n.scalar.(type) {
		case nil:
			buf.WriteString("null")
		case bool:
			buf.WriteString(strconv.FormatBool(v))
		case stdjson.Number:
			buf.WriteString(v.String())
		case string:
			return writeString(buf, v)
		default:
			return fmt.Errorf("unexpected json value %T", v)
		}
	}
	return nil
}

func writeString(buf *bytes.Buffer, value string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return err
	}
	// Encode 가 붙이는 개행 제거
	buf.Truncate(buf.Len() - 1)
	return nil
}
