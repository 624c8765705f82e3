// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package codec

import (
	"errors"
	"fmt"
	"os"

	"github.com/danos/datatree/data"
	"github.com/danos/datatree/schema"
	"github.com/danos/datatree/tree"
	"gopkg.in/yaml.v3"
)

const (
	// EditWrite replaces the node at the path with the value.
	EditWrite EditAction = "write"
	// EditMerge merges the value into the node at the path.
	EditMerge EditAction = "merge"
	// EditDelete removes the node at the path.
	EditDelete EditAction = "delete"
)

// ErrInvalidEdit is returned for edit entries that cannot be recorded.
var ErrInvalidEdit = errors.New("invalid edit")

// EditAction is an action that can be recorded by an edit script.
type EditAction string

// UnmarshalYAML reads the action from a YAML scalar.
func (e *EditAction) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch s {
	case "write":
		*e = EditWrite
	case "merge":
		*e = EditMerge
	case "delete":
		*e = EditDelete
	default:
		return fmt.Errorf("%w: line %d: unknown edit-action %q",
			ErrInvalidEdit, value.Line, s)
	}
	return nil
}

// MarshalYAML returns the action as a YAML scalar.
func (e EditAction) MarshalYAML() (interface{}, error) {
	switch e {
	case EditWrite, EditMerge, EditDelete:
		return e.String(), nil
	default:
		return nil, fmt.Errorf("%w: unknown edit-action %q", ErrInvalidEdit, string(e))
	}
}

// String returns the EditAction as a string.
func (e EditAction) String() string {
	return string(e)
}

// EditEntry is one action of an edit script: what to do, the path to do
// it at and, for writes and merges, the value to use.
//
// Values read from YAML are kept undecoded until the entry is applied,
// since the schema of the target tree is needed to decode them.
type EditEntry struct {
	Action EditAction
	Path   *data.InstanceID
	Value  *data.Node

	raw *yaml.Node
}

type editEntryYAML struct {
	Action EditAction `yaml:"action"`
	Path   string     `yaml:"path"`
	Value  *yaml.Node `yaml:"value,omitempty"`
}

// UnmarshalYAML reads an entry from a YAML mapping.
func (e *EditEntry) UnmarshalYAML(value *yaml.Node) error {
	var in editEntryYAML
	if err := value.Decode(&in); err != nil {
		return err
	}
	if in.Action == "" {
		return fmt.Errorf("%w: line %d: missing action", ErrInvalidEdit, value.Line)
	}
	path, err := data.InstanceIDParse(in.Path)
	if err != nil {
		return fmt.Errorf("%w: line %d: %w", ErrInvalidEdit, value.Line, err)
	}
	*e = EditEntry{Action: in.Action, Path: path, raw: in.Value}
	return nil
}

// MarshalYAML returns the entry as a YAML mapping.
func (e EditEntry) MarshalYAML() (interface{}, error) {
	if e.Path == nil {
		return nil, fmt.Errorf("%w: %s without a path", ErrInvalidEdit, e.Action)
	}
	out := editEntryYAML{Action: e.Action, Path: e.Path.String(), Value: e.raw}
	if e.Value != nil {
		out.Value = EncodeNode(e.Value)
	}
	return out, nil
}

func (e *EditEntry) value(ctx *schema.Context) (*data.Node, error) {
	if e.Value != nil {
		return e.Value, nil
	}
	if e.raw == nil {
		return nil, fmt.Errorf("%w: %s %s without a value", ErrInvalidEdit, e.Action, e.Path)
	}
	return DecodeNode(ctx, e.Path, e.raw)
}

func (e *EditEntry) evalWrite(ctx *schema.Context) (func(*tree.Modification) error, error) {
	path := e.Path
	value, err := e.value(ctx)
	if err != nil {
		return nil, err
	}
	return func(m *tree.Modification) error {
		return m.Write(path, value)
	}, nil
}

func (e *EditEntry) evalMerge(ctx *schema.Context) (func(*tree.Modification) error, error) {
	path := e.Path
	value, err := e.value(ctx)
	if err != nil {
		return nil, err
	}
	return func(m *tree.Modification) error {
		return m.Merge(path, value)
	}, nil
}

func (e *EditEntry) evalDelete() func(*tree.Modification) error {
	path := e.Path
	return func(m *tree.Modification) error {
		return m.Delete(path)
	}
}

func (e *EditEntry) eval(ctx *schema.Context) (func(*tree.Modification) error, error) {
	if e.Path == nil {
		return nil, fmt.Errorf("%w: %s without a path", ErrInvalidEdit, e.Action)
	}
	switch e.Action {
	case EditWrite:
		return e.evalWrite(ctx)
	case EditMerge:
		return e.evalMerge(ctx)
	case EditDelete:
		return e.evalDelete(), nil
	default:
		return nil, fmt.Errorf("%w: unknown edit-action %q", ErrInvalidEdit, string(e.Action))
	}
}

// EditOperation is an ordered edit script.
type EditOperation struct {
	Actions []EditEntry `yaml:"actions,omitempty"`
}

// String returns the edit script as YAML.
func (e *EditOperation) String() string {
	out, err := yaml.Marshal(e)
	if err != nil {
		return err.Error()
	}
	return string(out)
}

func (e *EditOperation) eval(ctx *schema.Context) ([]func(*tree.Modification) error, error) {
	actions := make([]func(*tree.Modification) error, len(e.Actions))
	for i := range e.Actions {
		action, err := e.Actions[i].eval(ctx)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		actions[i] = action
	}
	return actions, nil
}

// Apply records the actions into mod in order. Values are decoded
// against the schema of the snapshot mod was opened on, and nothing is
// recorded when one of them does not decode.
func (e *EditOperation) Apply(mod *tree.Modification) error {
	actions, err := e.eval(mod.Snapshot().Schema())
	if err != nil {
		return err
	}
	for i, action := range actions {
		if err := action(mod); err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}
	}
	return nil
}

// ParseEditOperation reads an edit script from YAML.
func ParseEditOperation(b []byte) (*EditOperation, error) {
	var edit EditOperation
	if err := yaml.Unmarshal(b, &edit); err != nil {
		return nil, err
	}
	return &edit, nil
}

// LoadEditOperation reads an edit script from the YAML file at path.
func LoadEditOperation(path string) (*EditOperation, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseEditOperation(b)
}

// EditOperationNew produces a new EditOperation from the provided
// entries.
func EditOperationNew(entries ...EditEntry) *EditOperation {
	return &EditOperation{
		Actions: entries,
	}
}

type editEntryOptions struct {
	value *data.Node
}

// EditEntryOption is a constructor for the optional parts of an EditEntry.
type EditEntryOption func(*editEntryOptions)

// EditEntryValue produces an EditEntryOption that populates the value
// of an EditEntry.
func EditEntryValue(val *data.Node) EditEntryOption {
	return func(o *editEntryOptions) {
		o.value = val
	}
}

// EditEntryNew constructs a new EditEntry. It panics if path is not a
// valid instance-identifier. The last option in wins if they write the
// same option.
func EditEntryNew(action EditAction, path string, options ...EditEntryOption) EditEntry {
	var opts editEntryOptions
	for _, option := range options {
		option(&opts)
	}
	return EditEntry{
		Action: action,
		Path:   data.InstanceIDNew(path),
		Value:  opts.value,
	}
}

// EditFromCandidate returns the edit script that makes the same changes
// as c when applied to the snapshot c was computed against.
func EditFromCandidate(c *tree.Candidate) (*EditOperation, error) {
	return EditFromCandidateNode(c.Snapshot().Schema(), c.RootPath(), c.RootNode())
}

// EditFromCandidateNode returns the edit script for the changes below
// n, path being the absolute path of n. Written nodes become writes of
// their new data and removed nodes become deletes.
func EditFromCandidateNode(
	ctx *schema.Context,
	path *data.InstanceID,
	n *tree.CandidateNode,
) (*EditOperation, error) {
	var out []EditEntry
	err := tree.WalkCandidate(path, n, func(path *data.InstanceID, n *tree.CandidateNode) error {
		var entries []EditEntry
		var err error
		switch n.ModificationType() {
		case tree.Write, tree.Appeared:
			after, _ := n.DataAfter()
			entries, err = dataEntries(ctx, EditWrite, path, after)
		case tree.Delete, tree.Disappeared:
			before, _ := n.DataBefore()
			entries, err = dataEntries(ctx, EditDelete, path, before)
		}
		out = append(out, entries...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return EditOperationNew(out...), nil
}

// dataEntries addresses choices and augmentations through their
// children, since paths written by users never name them.
func dataEntries(
	ctx *schema.Context,
	action EditAction,
	path *data.InstanceID,
	n *data.Node,
) ([]EditEntry, error) {
	switch n.Kind() {
	case data.KindChoice, data.KindAugmentation:
		var out []EditEntry
		for child := range n.Children() {
			entries, err := dataEntries(ctx, action, path.Append(child.Identifier()), child)
			if err != nil {
				return nil, err
			}
			out = append(out, entries...)
		}
		return out, nil
	}
	p, err := ctx.Denormalize(path)
	if err != nil {
		return nil, err
	}
	e := EditEntry{Action: action, Path: p}
	if action != EditDelete {
		e.Value = n
	}
	return []EditEntry{e}, nil
}
