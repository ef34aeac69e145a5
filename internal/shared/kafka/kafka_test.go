package kafka

import (
	"reflect"
	"testing"
)

func TestSplitBrokers(t *testing.T) {
	got := splitBrokers(" a:9092, b:9092,,")
	if want := []string{"a:9092", "b:9092"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("splitBrokers = %v, want %v", got, want)
	}
}
