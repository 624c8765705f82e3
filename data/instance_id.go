// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package data

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

const (
	sp   = " "
	htab = "	"
	wsp  = sp + htab
)

// ErrInvalidInstanceID is returned when an instance-identifier string
// cannot be parsed.
var ErrInvalidInstanceID = errors.New("invalid instance identifier")

// InstanceIDNew parses an instance identifier string into an InstanceID
// object. It panics if the string is not a valid instance-identifier.
func InstanceIDNew(instance string) *InstanceID {
	id, err := InstanceIDParse(instance)
	if err != nil {
		panic(err)
	}
	return id
}

// InstanceIDParse parses an instance identifier string.
//
// Instance identifiers match the following grammar:
//
//	instance-identifier = "/" / 1*("/" (node-identifier *predicate))
//	predicate           = "[" *WSP predicate-expr *WSP "]"
//	predicate-expr      = (node-identifier / ".") *WSP "=" *WSP
//	                      ((DQUOTE string DQUOTE) /
//	                       (SQUOTE string SQUOTE))
//	node-identifier     = [prefix ":"] identifier
//	identifier          = (ALPHA / "_")
//	                      *(ALPHA / DIGIT / "_" / "-" / ".")
//	prefix              = identifier
//
// The first node-identifier must carry a prefix, later ones inherit the
// prefix of their parent. Positional predicates are not supported since
// list entries are always addressed by their keys.
func InstanceIDParse(instance string) (id *InstanceID, err error) {
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		switch v := v.(type) {
		case string:
			err = fmt.Errorf("%w: %s", ErrInvalidInstanceID, v)
		case error:
			err = fmt.Errorf("%w: %s", ErrInvalidInstanceID, v.Error())
		default:
			panic(v)
		}
	}()
	return (&instanceIDParser{}).parse(instance), nil
}

// instanceIDParser implements a straight forward recursive descent
// parser for the instance identifier grammar. Using lex/yacc for this
// would be overkill so just parse the nodes inline. Errors are raised
// as panics and recovered by InstanceIDParse.
type instanceIDParser struct{}

func (p *instanceIDParser) parse(input string) *InstanceID {
	if input == "/" {
		return RootInstanceID()
	}
	parts := p.splitNodeIDs(input)
	if len(parts) == 0 {
		panic("must specify at least one node-identifier")
	}
	if parts[0] != "" {
		panic("must start with a \"/\"")
	}
	parts = parts[1:]
	if len(parts) == 0 {
		panic("must specify at least one node-identifier")
	}
	args := make([]PathArgument, 0, len(parts))
	var prefix string
	for _, nodeIDstring := range parts {
		arg := p.parseNodeID(prefix, nodeIDstring)
		prefix = arg.name.Module
		args = append(args, arg)
	}
	return &InstanceID{args: args}
}

// quotes tracks whether a scan is inside a quoted predicate value.
type quotes struct {
	single, double bool
}

// unquoted consumes r and reports whether it is a character outside of
// any quotes. Quote characters themselves are never unquoted.
func (q *quotes) unquoted(r rune) bool {
	switch {
	case r == '\'' && !q.double:
		q.single = !q.single
		return false
	case r == '"' && !q.single:
		q.double = !q.double
		return false
	}
	return !q.single && !q.double
}

func (q *quotes) open() bool { return q.single || q.double }

func (p *instanceIDParser) splitNodeIDs(input string) []string {
	var q quotes
	var out []string
	var first int
	for i, r := range input {
		if q.unquoted(r) && r == '/' {
			out = append(out, input[first:i])
			first = i + 1
		}
	}
	if q.open() {
		panic("unterminated quote")
	}
	if first < len(input) {
		out = append(out, input[first:])
	}
	return out
}

func (p *instanceIDParser) parseName(prefix, input string) QName {
	// node-identifier     = [prefix ":"] identifier
	var q QName
	idParts := strings.SplitN(input, ":", 2)
	switch len(idParts) {
	case 1:
		if prefix == "" {
			panic("unable to determine prefix")
		}
		q = QName{Module: prefix, Name: idParts[0]}
	case 2:
		q = QName{Module: idParts[0], Name: idParts[1]}
	}
	p.checkIdentifier(q.Module)
	p.checkIdentifier(q.Name)
	return q
}

func (p *instanceIDParser) parseNodeID(prefix, input string) PathArgument {
	// (node-identifier *predicate)
	var predString string
	if idx := strings.IndexRune(input, '['); idx >= 0 {
		predString = input[idx:]
		input = input[:idx]
	}
	name := p.parseName(prefix, input)
	if predString == "" {
		return NodeIdentifier(name)
	}
	var keys []KeyValue
	for _, pred := range p.splitPredicates(predString) {
		key, value := p.parsePredicate(name.Module, pred)
		if key.Name == "." {
			if len(keys) != 0 {
				panic("cannot mix value and key predicates")
			}
			return NodeWithValue(name, value)
		}
		for _, kv := range keys {
			if kv.Key == key {
				panic("duplicate predicate " + key.String())
			}
		}
		keys = append(keys, KeyValue{Key: key, Value: ValueNew(value)})
	}
	return NodeIdentifierWithPredicates(name, keys...)
}

// checkIdentifier panics unless str is an identifier:
//
//	identifier = (ALPHA / "_") *(ALPHA / DIGIT / "_" / "-" / ".")
func (p *instanceIDParser) checkIdentifier(str string) {
	if len(str) >= 3 && strings.EqualFold(str[:3], "xml") {
		panic(fmt.Errorf("invalid identifier %q, may not start with xml", str))
	}
	valid := str != ""
	for i, r := range str {
		letter := r == '_' || unicode.IsLetter(r)
		if i == 0 {
			valid = valid && letter
			continue
		}
		valid = valid && (letter || unicode.IsDigit(r) || r == '-' || r == '.')
	}
	if !valid {
		panic(fmt.Errorf("invalid node-identifier %q", str))
	}
}

func (p *instanceIDParser) splitPredicates(input string) []string {
	var q quotes
	var inPredicate bool
	var out []string
	var first int
	for i, r := range input {
		if !q.unquoted(r) {
			continue
		}
		switch r {
		case '[':
			if inPredicate {
				panic("nested predicates are not allowed")
			}
			inPredicate = true
		case ']':
			out = append(out, input[first:i+1])
			first = i + 1
			inPredicate = false
		}
	}
	if q.open() {
		panic("unterminated quote")
	}
	if inPredicate || first != len(input) {
		panic("unterminated predicate")
	}
	return out
}

// parsePredicate returns the key name and the value of one predicate.
// A "." key denotes a leaf-list value predicate.
func (p *instanceIDParser) parsePredicate(prefix, input string) (QName, string) {
	// predicate           = "[" *WSP predicate-expr *WSP "]"
	if input[0] != '[' || input[len(input)-1] != ']' {
		panic("invalid predicate \"" + input + "\"")
	}
	input = strings.TrimSuffix(strings.TrimPrefix(input, "["), "]")
	input = strings.Trim(input, wsp)
	if _, err := strconv.ParseUint(input, 10, 64); err == nil {
		panic("positional predicates are not supported")
	}
	// predicate-expr      = (node-identifier / ".") *WSP "=" *WSP
	//                         ((DQUOTE string DQUOTE) /
	//                          (SQUOTE string SQUOTE))
	exprParts := strings.SplitN(input, "=", 2)
	if len(exprParts) < 2 {
		panic("invalid predicate expression " + input)
	}
	for i, v := range exprParts {
		exprParts[i] = strings.Trim(v, wsp)
	}
	var key QName
	if exprParts[0] == "." {
		key = QName{Module: prefix, Name: "."}
	} else {
		key = p.parseName(prefix, exprParts[0])
	}
	expr := exprParts[1]
	if expr == "" {
		panic("invalid predicate, expected ''' or '\"'")
	}
	var end int
	switch expr[0] {
	case '"':
		end = strings.IndexRune(expr[1:], '"')
	case '\'':
		end = strings.IndexRune(expr[1:], '\'')
	default:
		panic("invalid predicate, expected ''' or '\"'")
	}
	expr = expr[1:]
	if end != len(expr)-1 {
		panic("unterminated expression value")
	}
	return key, expr[0:end]
}
