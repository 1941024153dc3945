// Copyright 2016 Qubit Digital Ltd.
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package parsers

import (
	"github.com/pkg/errors"
	"github.com/valyala/fastjson"
)

var jsonParsers fastjson.ParserPool

func parseJSON(line string) (interface{}, error) {
	p := jsonParsers.Get()
	defer jsonParsers.Put(p)

	v, err := p.Parse(line)
	if err != nil {
		return nil, errors.Wrap(err, "invalid json")
	}
	if v.Type() != fastjson.TypeObject {
		return nil, errors.Errorf("expected a json object, got %s", v.Type())
	}
	return fromJSON(v), nil
}

// fromJSON copies a fastjson value out of the parser's buffers.
func fromJSON(v *fastjson.Value) interface{} {
	switch v.Type() {
	case fastjson.TypeObject:
		o, _ := v.Object()
		m := make(map[string]interface{}, o.Len())
		o.Visit(func(k []byte, ov *fastjson.Value) {
			m[string(k)] = fromJSON(ov)
		})
		return m
	case fastjson.TypeArray:
		vs, _ := v.Array()
		a := make([]interface{}, len(vs))
		for i := range vs {
			a[i] = fromJSON(vs[i])
		}
		return a
	case fastjson.TypeString:
		bs, _ := v.StringBytes()
		return string(bs)
	case fastjson.TypeNumber:
		n, _ := v.Float64()
		return n
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeFalse:
		return false
	}
	return nil
}
