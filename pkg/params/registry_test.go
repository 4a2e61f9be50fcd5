// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package params

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func newTestRegistry() *Registry {
	r, err := Load(DefaultLimits(), DefaultTable())
	if err != nil {
		panic(err)
	}
	return r
}

func TestRegistry_Add(t *testing.T) {
	Convey("Given an empty registry with room for two entries", t, func() {
		r := NewRegistry(Limits{MaxEntries: 2, MaxTopicLen: 8, MaxLabelLen: 4})

		Convey("When adding a topic", func() {
			err := r.Add("a/b", "ab", KindFloat, true)

			Convey("It should be registered empty and invalid", func() {
				So(err, ShouldBeNil)
				d, err := r.Get("a/b")
				So(err, ShouldBeNil)
				So(d.Raw, ShouldEqual, "")
				So(d.Valid, ShouldBeFalse)
				So(d.Kind, ShouldEqual, KindFloat)
			})

			Convey("It should reject the same topic again", func() {
				So(errors.Is(r.Add("a/b", "x", KindInt, false), ErrDuplicate), ShouldBeTrue)
				So(r.Len(), ShouldEqual, 1)
			})
		})

		Convey("It should reject oversized text", func() {
			So(errors.Is(r.Add("123456789", "x", KindInt, true), ErrTooLong), ShouldBeTrue)
			So(errors.Is(r.Add("t", "label", KindInt, true), ErrTooLong), ShouldBeTrue)
			So(r.Len(), ShouldEqual, 0)
		})

		Convey("It should reject an empty topic or an unknown kind", func() {
			So(errors.Is(r.Add("", "x", KindInt, true), ErrEmptyTopic), ShouldBeTrue)
			So(r.Add("t", "x", Kind(9), true), ShouldNotBeNil)
		})

		Convey("It should reject entries past capacity", func() {
			So(r.Add("a", "", KindInt, true), ShouldBeNil)
			So(r.Add("b", "", KindInt, true), ShouldBeNil)
			So(errors.Is(r.Add("c", "", KindInt, true), ErrTableFull), ShouldBeTrue)
			So(r.Topics(), ShouldResemble, []string{"a", "b"})
		})
	})
}

func TestRegistry_SetRaw(t *testing.T) {
	Convey("Given the default table", t, func() {
		r := newTestRegistry()
		before := r.Snapshot()

		Convey("When setting an unregistered topic", func() {
			err := r.SetRaw("zk-env/pressure", "1013")

			Convey("It should report not found and leave the table unchanged", func() {
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
				So(r.Snapshot(), ShouldResemble, before)
			})
		})

		Convey("When topics differ only by case", func() {
			err := r.SetRaw("ZK-ENV/TEMP", "1")

			Convey("It should not match", func() {
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When setting a registered topic", func() {
			So(r.SetRaw("zk-env/temp", "8.23"), ShouldBeNil)

			Convey("It should store the text without marking it valid", func() {
				d, _ := r.Get("zk-env/temp")
				So(d.Raw, ShouldEqual, "8.23")
				So(d.Valid, ShouldBeFalse)
				So(d.Updated.IsZero(), ShouldBeFalse)
			})

			Convey("It should become valid only through SetValid", func() {
				So(r.SetValid("zk-env/temp", true), ShouldBeNil)
				So(r.Valid("zk-env/temp"), ShouldBeTrue)
			})

			Convey("It should keep the previous text on the next update", func() {
				So(r.SetRaw("zk-env/temp", "9.10"), ShouldBeNil)
				d, _ := r.Get("zk-env/temp")
				So(d.Previous, ShouldEqual, "8.23")
				So(d.Raw, ShouldEqual, "9.10")
			})
		})

		Convey("When the text overflows the slot", func() {
			err := r.SetRaw("zk-env/temp", strings.Repeat("9", DefaultMaxValueLen+1))

			Convey("It should be rejected without changing the entry", func() {
				So(errors.Is(err, ErrTooLong), ShouldBeTrue)
				So(r.Snapshot(), ShouldResemble, before)
			})
		})

		Convey("When the text fills the slot exactly", func() {
			text := strings.Repeat("9", DefaultMaxValueLen)
			So(r.SetRaw("zk-env/temp", text), ShouldBeNil)
			d, _ := r.Get("zk-env/temp")
			So(d.Raw, ShouldEqual, text)
		})
	})
}

func TestRegistry_Validity(t *testing.T) {
	Convey("Given the default table", t, func() {
		r := newTestRegistry()

		Convey("Every entry should start invalid", func() {
			r.Each(func(d Descriptor) bool {
				So(d.Valid, ShouldBeFalse)
				return true
			})
		})

		Convey("Unknown topics should never be valid", func() {
			So(r.Valid("nope"), ShouldBeFalse)
			So(errors.Is(r.SetValid("nope", true), ErrNotFound), ShouldBeTrue)
		})

		Convey("Metadata should be recorded per topic", func() {
			So(r.SetMeta("zk-env/gas", "kitchen", "22:59:55"), ShouldBeNil)
			d, _ := r.Get("zk-env/gas")
			So(d.Location, ShouldEqual, "kitchen")
			So(d.Stamp, ShouldEqual, "22:59:55")
			So(errors.Is(r.SetMeta("nope", "", ""), ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestRegistry_Value(t *testing.T) {
	Convey("Given the default table", t, func() {
		r := newTestRegistry()
		So(r.Add("zk-env/count", "Count", KindInt, true), ShouldBeNil)
		So(r.Add("zk-env/status", "Status", KindString, true), ShouldBeNil)

		Convey("It should read each declared kind", func() {
			So(r.SetRaw("zk-env/temp", "8.23"), ShouldBeNil)
			So(r.SetRaw("zk-env/o_light", "true"), ShouldBeNil)
			So(r.SetRaw("zk-env/count", `"42"`), ShouldBeNil)
			So(r.SetRaw("zk-env/status", `"door open"`), ShouldBeNil)

			v, err := r.Value("zk-env/temp")
			So(err, ShouldBeNil)
			So(v, ShouldResemble, Value{Kind: KindFloat, Float: 8.23})
			So(v.String(), ShouldEqual, "8.23")

			v, err = r.Value("zk-env/o_light")
			So(err, ShouldBeNil)
			So(v, ShouldResemble, Value{Kind: KindBool, Bool: true})

			v, err = r.Value("zk-env/count")
			So(err, ShouldBeNil)
			So(v, ShouldResemble, Value{Kind: KindInt, Int: 42})

			v, err = r.Value("zk-env/status")
			So(err, ShouldBeNil)
			So(v.Str, ShouldEqual, "door open")
		})

		Convey("It should report unknown topics as not found", func() {
			_, err := r.Value("nope")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})

		Convey("It should report text that does not match the declared kind", func() {
			So(r.SetRaw("zk-env/o_light", "1"), ShouldBeNil)
			_, err := r.Value("zk-env/o_light")
			So(errors.Is(err, ErrWrongType), ShouldBeTrue)

			var ce *ConversionError
			So(errors.As(err, &ce), ShouldBeTrue)
			So(ce.Topic, ShouldEqual, "zk-env/o_light")
			So(ce.Kind, ShouldEqual, KindBool)

			So(r.SetRaw("zk-env/temp", "warm"), ShouldBeNil)
			_, err = r.Value("zk-env/temp")
			So(errors.Is(err, ErrWrongType), ShouldBeTrue)
			So(errors.Is(err, strconv.ErrSyntax), ShouldBeTrue)
		})

		Convey("It should fail an unset numeric entry instead of reading zero", func() {
			_, err := r.Value("zk-env/humidity")
			So(errors.Is(err, ErrWrongType), ShouldBeTrue)
		})
	})
}

func TestRegistry_TypedAccessors(t *testing.T) {
	Convey("Given a registry with raw values set", t, func() {
		r := newTestRegistry()
		So(r.SetRaw("zk-env/gas", "212"), ShouldBeNil)

		Convey("Int and Uint8 should parse decimal text", func() {
			n, err := r.Int("zk-env/gas")
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 212)

			u, err := r.Uint8("zk-env/gas")
			So(err, ShouldBeNil)
			So(u, ShouldEqual, 212)
		})

		Convey("Uint8 should reject out of range values", func() {
			So(r.SetRaw("zk-env/gas", "256"), ShouldBeNil)
			_, err := r.Uint8("zk-env/gas")
			So(errors.Is(err, ErrWrongType), ShouldBeTrue)
			So(errors.Is(err, strconv.ErrRange), ShouldBeTrue)

			var ce *ConversionError
			So(errors.As(err, &ce), ShouldBeTrue)
			So(ce.Error(), ShouldContainSubstring, "as uint8")
		})

		Convey("Float should parse decimals", func() {
			for text, want := range map[string]float64{"-3.5": -3.5, "1e3": 1000, `"21.50"`: 21.5} {
				So(r.SetRaw("zk-env/gas", text), ShouldBeNil)
				f, err := r.Float("zk-env/gas")
				So(err, ShouldBeNil)
				So(f, ShouldEqual, want)
			}
		})

		Convey("Float should reject non-finite and hex text", func() {
			for _, text := range []string{"NaN", "nan", "Inf", "+Inf", "-infinity", "0x1p4", "0X10", "1e400"} {
				So(r.SetRaw("zk-env/gas", text), ShouldBeNil)
				_, err := r.Float("zk-env/gas")
				So(errors.Is(err, ErrWrongType), ShouldBeTrue)
			}
		})

		Convey("Bool should accept only true and false", func() {
			for _, text := range []string{"true", `"true"`} {
				So(r.SetRaw("zk-env/o_auto", text), ShouldBeNil)
				b, err := r.Bool("zk-env/o_auto")
				So(err, ShouldBeNil)
				So(b, ShouldBeTrue)
			}
			So(r.SetRaw("zk-env/o_auto", "false"), ShouldBeNil)
			b, err := r.Bool("zk-env/o_auto")
			So(err, ShouldBeNil)
			So(b, ShouldBeFalse)

			for _, text := range []string{"1", "TRUE", "True", "t", "", "yes"} {
				So(r.SetRaw("zk-env/o_auto", text), ShouldBeNil)
				_, err := r.Bool("zk-env/o_auto")
				So(errors.Is(err, ErrWrongType), ShouldBeTrue)
			}
		})

		Convey("String should strip one pair of quotes", func() {
			So(r.SetRaw("zk-env/gas", `"garage"`), ShouldBeNil)
			s, err := r.String("zk-env/gas")
			So(err, ShouldBeNil)
			So(s, ShouldEqual, "garage")
		})

		Convey("Every accessor should report unknown topics", func() {
			_, err := r.Int("nope")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			_, err = r.Uint8("nope")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			_, err = r.Float("nope")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			_, err = r.Bool("nope")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			_, err = r.String("nope")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestParseEntry(t *testing.T) {
	Convey("Given topic flag values", t, func() {
		Convey("It should parse topic and kind with a default label", func() {
			e, err := ParseEntry("zk-env/pressure:float")
			So(err, ShouldBeNil)
			So(e, ShouldResemble, Entry{Topic: "zk-env/pressure", Label: "pressure", Kind: KindFloat, Display: true})
		})

		Convey("It should keep an explicit label", func() {
			e, err := ParseEntry("door:bool:Front door")
			So(err, ShouldBeNil)
			So(e.Label, ShouldEqual, "Front door")
			So(e.Kind, ShouldEqual, KindBool)
		})

		Convey("It should reject bad input", func() {
			for _, s := range []string{"", "topic", ":int", "t:complex"} {
				_, err := ParseEntry(s)
				So(err, ShouldNotBeNil)
			}
		})
	})
}

func TestKind_String(t *testing.T) {
	Convey("Kinds should round trip through their names", t, func() {
		for _, k := range []Kind{KindInt, KindFloat, KindBool, KindString} {
			parsed, err := ParseKind(k.String())
			So(err, ShouldBeNil)
			So(parsed, ShouldEqual, k)
		}
		So(Kind(7).String(), ShouldEqual, "kind(7)")
	})
}
