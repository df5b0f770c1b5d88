package codec

import (
	"encoding/json"
	"math"
	"reflect"
	"strings"
	"testing"
)

type task struct {
	Title string   `json:"title" yaml:"title"`
	Done  bool     `json:"done" yaml:"done"`
	Tags  []string `json:"tags" yaml:"tags"`
	Rank  int      `json:"rank" yaml:"rank"`
}

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "yaml", "proto"} {
		c, err := ByName(name)
		if err != nil {
			t.Fatalf("ByName(%q): %v", name, err)
		}
		if c.Name() != name {
			t.Errorf("ByName(%q).Name() = %q", name, c.Name())
		}
	}
	if _, err := ByName("xml"); err == nil {
		t.Error("ByName(xml) should fail")
	} else if !strings.Contains(err.Error(), "json") {
		t.Errorf("error should list known codecs, got %v", err)
	}
}

func TestCodecsAgreeOnSchema(t *testing.T) {
	in := map[string]any{
		"entries": []task{
			{Title: "write docs", Tags: []string{"a", "b"}, Rank: 2},
			{Title: "ship", Done: true, Tags: []string{"c"}, Rank: 1},
		},
	}
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			c, _ := ByName(name)
			data, err := c.Marshal(in)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			var out struct {
				Entries []task `json:"entries" yaml:"entries"`
			}
			if err := c.Unmarshal(data, &out); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if !reflect.DeepEqual(out.Entries, in["entries"]) {
				t.Errorf("round trip = %+v, want %+v", out.Entries, in["entries"])
			}
		})
	}
}

func TestDecodeErrorsAreWrapped(t *testing.T) {
	garbage := []byte{0xff, 0x00, '{', ':'}
	for _, name := range Names() {
		c, _ := ByName(name)
		var v struct{ X int }
		err := c.Unmarshal(garbage, &v)
		if err == nil {
			t.Errorf("%s: decoding garbage should fail", name)
			continue
		}
		if !strings.HasPrefix(err.Error(), name+" decode") {
			t.Errorf("%s: error %q lacks codec prefix", name, err)
		}
	}
}

func TestProtoKeepsWideIntegers(t *testing.T) {
	type wide struct {
		Big   int64   `json:"big"`
		Neg   int64   `json:"neg"`
		Max   uint64  `json:"max"`
		Small int     `json:"small"`
		Frac  float64 `json:"frac"`
		Items []int64 `json:"items"`
	}
	in := wide{
		Big:   1<<60 + 1,
		Neg:   math.MinInt64 + 1,
		Max:   math.MaxUint64,
		Small: 42,
		Frac:  0.1,
		Items: []int64{1<<53 + 1, 7},
	}
	data, err := Proto{}.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var out wide
	if err := (Proto{}).Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(out, in) {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestExactFloat(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"42", true},
		{"-7", true},
		{"9007199254740992", true},    // 2^53
		{"9007199254740993", false},   // 2^53+1
		{"1152921504606846976", true}, // 2^60
		{"1152921504606846977", false},
		{"18446744073709551615", false}, // MaxUint64
		{"99999999999999999999999", false},
		{"0.1", true},
		{"1e300", true},
	}
	for _, tt := range tests {
		if _, ok := exactFloat(json.Number(tt.in)); ok != tt.want {
			t.Errorf("exactFloat(%s) = %v, want %v", tt.in, ok, tt.want)
		}
	}
}
