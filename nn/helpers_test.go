package nn

import (
	"reflect"
	"testing"
)

func ok(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
}

func equals(t *testing.T, act, exp interface{}) {
	t.Helper()
	if !reflect.DeepEqual(exp, act) {
		t.Fatalf("exp: %#v\n\n\tgot: %#v", exp, act)
	}
}

func notEquals(t *testing.T, act, exp interface{}) {
	t.Helper()
	if reflect.DeepEqual(exp, act) {
		t.Fatalf("value should not equal %#v", exp)
	}
}
