// This file implements the nested-property applier: walking a path of
// array-indices/dict-keys into a Value tree, and applying an UpdateAction
// at the terminus. See spec.md §4.6.

package wiretype

// PathLevel is one step of a property path.
type PathLevel struct {
	IsKey bool
	Index uint32
	Key   string
}

// ArrayIndex constructs an ArrayIndex PathLevel.
func ArrayIndex(i uint32) PathLevel { return PathLevel{Index: i} }

// DictKey constructs a DictKey PathLevel.
func DictKey(k string) PathLevel { return PathLevel{IsKey: true, Key: k} }

// ActionKind identifies which UpdateAction variant is populated.
type ActionKind uint8

const (
	ActionSetKey ActionKind = iota
	ActionSetRange
	ActionSetElement
	ActionRemoveRange
)

// UpdateAction is the mutation to apply at the terminus of a property path.
type UpdateAction struct {
	Kind ActionKind

	// SetKey
	Key   string
	Value Value

	// SetElement
	Index uint32

	// SetRange / RemoveRange
	Begin, End uint32
	Values     []Value
}

// SetKeyAction constructs a SetKey UpdateAction.
func SetKeyAction(key string, value Value) UpdateAction {
	return UpdateAction{Kind: ActionSetKey, Key: key, Value: value}
}

// SetElementAction constructs a SetElement UpdateAction.
func SetElementAction(index uint32, value Value) UpdateAction {
	return UpdateAction{Kind: ActionSetElement, Index: index, Value: value}
}

// SetRangeAction constructs a SetRange UpdateAction.
func SetRangeAction(begin, end uint32, values []Value) UpdateAction {
	return UpdateAction{Kind: ActionSetRange, Begin: begin, End: end, Values: values}
}

// RemoveRangeAction constructs a RemoveRange UpdateAction.
func RemoveRangeAction(begin, end uint32) UpdateAction {
	return UpdateAction{Kind: ActionRemoveRange, Begin: begin, End: end}
}

// Walk performs the linear descent of path against v, returning the
// addressable terminus node. No recursion into values not named by the
// path (spec.md §9): each step only looks at the current node's immediate
// children.
func (v *Value) Walk(path []PathLevel) (*Value, error) {
	cur := v
	for _, lvl := range path {
		next, err := stepInto(cur, lvl)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// stepInto resolves one path level against cur, returning the addressable
// child node.
func stepInto(cur *Value, lvl PathLevel) (*Value, error) {
	if lvl.IsKey {
		if cur.Dict == nil {
			return nil, ErrPropertyPathInvalid
		}
		child, ok := cur.Dict[lvl.Key]
		if !ok || child == nil {
			return nil, ErrPropertyPathInvalid
		}
		return child, nil
	}
	if cur.Kind != KindArray && cur.Kind != KindTuple {
		return nil, ErrPropertyPathInvalid
	}
	if int(lvl.Index) >= len(cur.Array) {
		return nil, ErrPropertyPathInvalid
	}
	return &cur.Array[lvl.Index], nil
}

// Apply walks path and applies action at the terminus.
func (v *Value) Apply(path []PathLevel, action UpdateAction) error {
	terminus, err := v.Walk(path)
	if err != nil {
		return err
	}
	return terminus.applyHere(action)
}

// applyHere mutates the terminus Value in place per action.Kind.
func (v *Value) applyHere(action UpdateAction) error {
	switch action.Kind {
	case ActionSetKey:
		if v.Dict == nil {
			if v.Kind != KindPickled && v.Kind != KindNone {
				return ErrPropertyPathInvalid
			}
			v.Dict = map[string]*Value{}
			v.Kind = KindPickled
		}
		val := action.Value
		v.Dict[action.Key] = &val
		return nil

	case ActionSetElement:
		if v.Kind != KindArray && v.Kind != KindTuple {
			return ErrPropertyPathInvalid
		}
		if int(action.Index) >= len(v.Array) {
			return ErrPropertyPathInvalid
		}
		v.Array[action.Index] = action.Value
		return nil

	case ActionSetRange:
		if v.Kind != KindArray && v.Kind != KindTuple {
			return ErrPropertyPathInvalid
		}
		if action.Begin > action.End || int(action.End) > len(v.Array) {
			return ErrPropertyPathInvalid
		}
		out := make([]Value, 0, len(v.Array)-int(action.End-action.Begin)+len(action.Values))
		out = append(out, v.Array[:action.Begin]...)
		out = append(out, action.Values...)
		out = append(out, v.Array[action.End:]...)
		v.Array = out
		return nil

	case ActionRemoveRange:
		if v.Kind != KindArray && v.Kind != KindTuple {
			return ErrPropertyPathInvalid
		}
		if action.Begin > action.End || int(action.End) > len(v.Array) {
			return ErrPropertyPathInvalid
		}
		out := make([]Value, 0, len(v.Array)-int(action.End-action.Begin))
		out = append(out, v.Array[:action.Begin]...)
		out = append(out, v.Array[action.End:]...)
		v.Array = out
		return nil

	default:
		return ErrPropertyPathInvalid
	}
}
