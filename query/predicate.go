package query

// Predicate is a node of a Hasura bool_exp document.
type Predicate map[string]interface{}

// Field addresses a possibly nested column, e.g. Field("deposit", "l1_transaction", "level").
type Field []string

func (f Field) op(op string, value interface{}) Predicate {
	var res interface{} = map[string]interface{}{op: value}
	for i := len(f) - 1; i >= 0; i-- {
		res = map[string]interface{}{f[i]: res}
	}
	if p, ok := res.(map[string]interface{}); ok {
		return p
	}
	return Predicate{}
}

func (f Field) Eq(value interface{}) Predicate      { return f.op("_eq", value) }
func (f Field) In(values interface{}) Predicate     { return f.op("_in", values) }
func (f Field) NotIn(values interface{}) Predicate  { return f.op("_nin", values) }
func (f Field) IsNull(isNull bool) Predicate        { return f.op("_is_null", isNull) }
func (f Field) Gte(value interface{}) Predicate     { return f.op("_gte", value) }
func (f Field) Lt(value interface{}) Predicate      { return f.op("_lt", value) }
func (f Field) ILike(pattern interface{}) Predicate { return f.op("_ilike", pattern) }

// And combines predicates; empty ones are dropped and a single one is returned as is.
func And(ps ...Predicate) Predicate {
	return combine("_and", ps)
}

func Or(ps ...Predicate) Predicate {
	return combine("_or", ps)
}

func combine(op string, ps []Predicate) Predicate {
	parts := make([]Predicate, 0, len(ps))
	for _, p := range ps {
		if len(p) > 0 {
			parts = append(parts, p)
		}
	}
	switch len(parts) {
	case 0:
		return Predicate{}
	case 1:
		return parts[0]
	default:
		return Predicate{op: parts}
	}
}
