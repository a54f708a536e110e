package ast

import "testing"

func TestFuncTypeEqual(t *testing.T) {
	a := FuncType{Params: []ValType{ValTypeI32, ValTypeF32}, Results: []ValType{ValTypeI32}}
	tests := []struct {
		name string
		b    FuncType
		want bool
	}{
		{"same", FuncType{Params: []ValType{ValTypeI32, ValTypeF32}, Results: []ValType{ValTypeI32}}, true},
		{"param differs", FuncType{Params: []ValType{ValTypeI32, ValTypeF64}, Results: []ValType{ValTypeI32}}, false},
		{"arity differs", FuncType{Params: []ValType{ValTypeI32}, Results: []ValType{ValTypeI32}}, false},
		{"no results", FuncType{Params: []ValType{ValTypeI32, ValTypeF32}}, false},
	}
	for _, tt := range tests {
		if got := a.Equal(tt.b); got != tt.want {
			t.Errorf("%s: Equal = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestValTypeString(t *testing.T) {
	if ValTypeF32.String() != "f32" || ValType(0).String() != "unknown" {
		t.Error("unexpected ValType names")
	}
}
