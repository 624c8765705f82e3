// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/danos/datatree/data"
	"github.com/danos/datatree/schema"
	"gopkg.in/yaml.v3"
)

// ErrInvalidDocument is returned when a document does not match the
// schema it is decoded against.
var ErrInvalidDocument = errors.New("invalid document")

func invalid(y *yaml.Node, format string, args ...interface{}) error {
	var line int
	if y != nil {
		line = y.Line
	}
	return fmt.Errorf("%w: line %d: %s", ErrInvalidDocument, line,
		fmt.Sprintf(format, args...))
}

// Decode reads every YAML document from r and returns the root node
// they describe together. Later documents are merged into earlier ones.
// An empty stream yields an empty root.
func Decode(ctx *schema.Context, r io.Reader) (*data.Node, error) {
	root := data.EmptyNew(data.KindContainer, ctx.Root().Identifier())
	dec := yaml.NewDecoder(r)
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return root, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
		n, err := DecodeNode(ctx, data.RootInstanceID(), &doc)
		if err != nil {
			return nil, err
		}
		root = root.Merge(n)
	}
}

// Unmarshal decodes the YAML documents in b, see Decode.
func Unmarshal(ctx *schema.Context, b []byte) (*data.Node, error) {
	return Decode(ctx, bytes.NewReader(b))
}

// DecodeNode decodes y as the node addressed by path: a mapping for
// containers and list entries, a sequence for lists and leaf-lists and
// a scalar for leaves and leaf-list entries.
func DecodeNode(ctx *schema.Context, path *data.InstanceID, y *yaml.Node) (*data.Node, error) {
	normal, sn, err := ctx.Resolve(path)
	if err != nil {
		return nil, err
	}
	id := sn.Identifier()
	if last, ok := normal.Last(); ok {
		id = last
	}
	return decodeBody(sn, id, id.NodeType().Module, y)
}

func deref(y *yaml.Node) *yaml.Node {
	for y != nil {
		switch y.Kind {
		case yaml.DocumentNode:
			if len(y.Content) == 0 {
				return nil
			}
			y = y.Content[0]
		case yaml.AliasNode:
			y = y.Alias
		default:
			return y
		}
	}
	return nil
}

func isNull(y *yaml.Node) bool {
	return y == nil || y.Kind == 0 ||
		(y.Kind == yaml.ScalarNode && y.ShortTag() == "!!null")
}

func decodeBody(
	sn *schema.Node,
	id data.PathArgument,
	module string,
	y *yaml.Node,
) (*data.Node, error) {
	y = deref(y)
	switch sn.Kind() {
	case schema.KindLeaf:
		v, err := decodeValue(sn, y)
		if err != nil {
			return nil, err
		}
		return data.LeafNew(sn.QName(), v), nil
	case schema.KindLeafList:
		if id.Kind() == data.ArgLeafListEntry {
			v, err := decodeValue(sn, y)
			if err != nil {
				return nil, err
			}
			return data.LeafListEntryNew(sn.QName(), v), nil
		}
		return decodeLeafList(sn, y)
	case schema.KindList:
		if id.Kind() == data.ArgListEntry {
			return decodeEntry(sn, id, y)
		}
		return decodeList(sn, y)
	case schema.KindContainer:
		return decodeMembers(sn, data.KindContainer, id, sn.QName().Module, y)
	case schema.KindChoice:
		return decodeMembers(sn, data.KindChoice, id, module, y)
	case schema.KindAugmentation:
		return decodeMembers(sn, data.KindAugmentation, id, module, y)
	case schema.KindCase:
	}
	return nil, invalid(y, "%s cannot hold data", sn)
}

func decodeValue(sn *schema.Node, y *yaml.Node) (*data.Value, error) {
	y = deref(y)
	if sn.Type() == schema.TypeEmpty {
		if isNull(y) || (y.Kind == yaml.SequenceNode &&
			len(y.Content) == 1 && isNull(deref(y.Content[0]))) {
			return data.Empty(), nil
		}
		return nil, invalid(y, "%s expects [null]", sn)
	}
	if isNull(y) || y.Kind != yaml.ScalarNode {
		return nil, invalid(y, "%s expects a scalar", sn)
	}
	if sn.Type() == schema.TypeAny {
		var v interface{}
		if err := y.Decode(&v); err != nil {
			return nil, invalid(y, "%s: %s", sn, err)
		}
		switch v.(type) {
		case int, int64, uint64, float64, bool, string:
			return data.ValueNew(v), nil
		}
		return data.ValueNew(y.Value), nil
	}
	v, err := sn.ParseValue(y.Value)
	if err != nil {
		return nil, invalid(y, "%s", err)
	}
	return v, nil
}

func decodeLeafList(sn *schema.Node, y *yaml.Node) (*data.Node, error) {
	b := data.BuilderNew(data.KindLeafList, sn.Identifier())
	if !isNull(y) {
		if y.Kind != yaml.SequenceNode {
			return nil, invalid(y, "%s expects a sequence", sn)
		}
		for _, e := range y.Content {
			v, err := decodeValue(sn, e)
			if err != nil {
				return nil, err
			}
			b.Add(data.LeafListEntryNew(sn.QName(), v))
		}
	}
	n, err := b.Build()
	if err != nil {
		return nil, invalid(y, "%s", err)
	}
	return n, nil
}

func decodeList(sn *schema.Node, y *yaml.Node) (*data.Node, error) {
	b := data.BuilderNew(data.KindList, sn.Identifier())
	if !isNull(y) {
		if y.Kind != yaml.SequenceNode {
			return nil, invalid(y, "%s expects a sequence", sn)
		}
		for _, e := range y.Content {
			entry, err := decodeEntry(sn, data.PathArgument{}, e)
			if err != nil {
				return nil, err
			}
			b.Add(entry)
		}
	}
	n, err := b.Build()
	if err != nil {
		return nil, invalid(y, "%s", err)
	}
	return n, nil
}

// decodeEntry decodes an entry of the list sn. A zero id is computed
// from the key leaves of the entry.
func decodeEntry(sn *schema.Node, id data.PathArgument, y *yaml.Node) (*data.Node, error) {
	y = deref(y)
	m := &members{kind: data.KindListEntry, id: id}
	if err := m.decode(sn, sn.QName().Module, y); err != nil {
		return nil, err
	}
	if id.IsZero() {
		keys := make([]data.KeyValue, 0, len(sn.Keys()))
		for _, k := range sn.Keys() {
			leaf, ok := m.leaf(k)
			if !ok {
				return nil, invalid(y, "entry of %s without key %s", sn, k)
			}
			keys = append(keys, data.KeyValue{Key: k, Value: leaf.Value()})
		}
		m.id = data.NodeIdentifierWithPredicates(sn.QName(), keys...)
	}
	return m.build(y)
}

func decodeMembers(
	sn *schema.Node,
	kind data.Kind,
	id data.PathArgument,
	module string,
	y *yaml.Node,
) (*data.Node, error) {
	m := &members{kind: kind, id: id}
	if err := m.decode(sn, module, y); err != nil {
		return nil, err
	}
	return m.build(y)
}

// members collects the children of a node while decoding. Children
// hidden behind choices and augmentations are grouped under the nodes
// that hold them.
type members struct {
	kind   data.Kind
	id     data.PathArgument
	nodes  []*data.Node
	nested map[*schema.Node]*members
	order  []*schema.Node
}

func (m *members) decode(sn *schema.Node, module string, y *yaml.Node) error {
	if isNull(y) {
		return nil
	}
	if y.Kind != yaml.MappingNode {
		return invalid(y, "%s expects a mapping", sn)
	}
	for i := 0; i+1 < len(y.Content); i += 2 {
		k, v := y.Content[i], y.Content[i+1]
		q := data.QNameParse(module, k.Value)
		child, through, ok := sn.Lookup(q)
		if !ok {
			return invalid(k, "unknown member %q of %s", k.Value, sn)
		}
		n, err := decodeBody(child, child.Identifier(), q.Module, v)
		if err != nil {
			return err
		}
		m.add(through, n)
	}
	return nil
}

func (m *members) add(through []*schema.Node, n *data.Node) {
	if len(through) == 0 {
		m.nodes = append(m.nodes, n)
		return
	}
	t := through[0]
	sub, ok := m.nested[t]
	if !ok {
		kind := data.KindChoice
		if t.Kind() == schema.KindAugmentation {
			kind = data.KindAugmentation
		}
		sub = &members{kind: kind, id: t.Identifier()}
		if m.nested == nil {
			m.nested = make(map[*schema.Node]*members)
		}
		m.nested[t] = sub
		m.order = append(m.order, t)
	}
	sub.add(through[1:], n)
}

func (m *members) leaf(q data.QName) (*data.Node, bool) {
	for _, n := range m.nodes {
		if n.Kind() == data.KindLeaf && n.NodeType() == q {
			return n, true
		}
	}
	return nil, false
}

func (m *members) build(y *yaml.Node) (*data.Node, error) {
	b := data.BuilderNew(m.kind, m.id).Add(m.nodes...)
	for _, t := range m.order {
		n, err := m.nested[t].build(y)
		if err != nil {
			return nil, err
		}
		b.Add(n)
	}
	n, err := b.Build()
	if err != nil {
		return nil, invalid(y, "%s", err)
	}
	return n, nil
}

// Encode writes n to w as a single YAML document, see EncodeNode.
func Encode(w io.Writer, n *data.Node) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(EncodeNode(n)); err != nil {
		return err
	}
	return enc.Close()
}

// Marshal returns n as a YAML document.
func Marshal(n *data.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeNode returns the YAML body of n in the form DecodeNode reads.
func EncodeNode(n *data.Node) *yaml.Node {
	return encodeBody(n, n.NodeType().Module)
}

func encodeBody(n *data.Node, module string) *yaml.Node {
	switch n.Kind() {
	case data.KindLeaf, data.KindLeafListEntry:
		return encodeValue(n.Value())
	case data.KindList, data.KindLeafList:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for entry := range n.Children() {
			seq.Content = append(seq.Content, encodeBody(entry, module))
		}
		return seq
	case data.KindChoice, data.KindAugmentation:
	default:
		module = n.NodeType().Module
	}
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	encodeMembers(m, n, module)
	return m
}

func encodeMembers(m *yaml.Node, n *data.Node, module string) {
	for child := range n.Children() {
		switch child.Kind() {
		case data.KindChoice, data.KindAugmentation:
			encodeMembers(m, child, module)
			continue
		}
		q := child.NodeType()
		key := q.Name
		if q.Module != module {
			key = q.String()
		}
		m.Content = append(m.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			encodeBody(child, module))
	}
}

func encodeValue(v *data.Value) *yaml.Node {
	scalar := func(tag, value string) *yaml.Node {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
	}
	if v.IsEmpty() {
		return &yaml.Node{
			Kind:    yaml.SequenceNode,
			Tag:     "!!seq",
			Style:   yaml.FlowStyle,
			Content: []*yaml.Node{scalar("!!null", "null")},
		}
	}
	switch d := v.ToInterface().(type) {
	case string:
		return scalar("!!str", d)
	case uint64:
		return scalar("!!int", strconv.FormatUint(d, 10))
	case int64:
		return scalar("!!int", strconv.FormatInt(d, 10))
	case float64:
		return scalar("!!float", strconv.FormatFloat(d, 'g', -1, 64))
	case bool:
		return scalar("!!bool", strconv.FormatBool(d))
	}
	return scalar("!!str", v.String())
}
