package dates_test

import (
	"encoding/json"
	"testing"
	"time"

	"thingslens/internal/dates"
)

func TestDecodeKnownValues(t *testing.T) {
	cases := []struct {
		packed int64
		want   string
	}{
		// 2024<<16 | 0*128 = Jan 1.
		{int64(2024)<<16 | 0, "2024-01-01"},
		// day-of-year 59 in a leap year is Feb 29.
		{int64(2024)<<16 | 59*128, "2024-02-29"},
		// day-of-year 59 in a non-leap year is Mar 1.
		{int64(2025)<<16 | 59*128, "2025-03-01"},
		{int64(2025)<<16 | 364*128, "2025-12-31"},
	}
	for _, tc := range cases {
		got, ok := dates.Decode(tc.packed)
		if !ok {
			t.Fatalf("Decode(%d) not ok", tc.packed)
		}
		if got.String() != tc.want {
			t.Errorf("Decode(%d) = %s, want %s", tc.packed, got, tc.want)
		}
	}
}

func TestDecodeZeroMeansUnset(t *testing.T) {
	if _, ok := dates.Decode(0); ok {
		t.Fatal("Decode(0) should report unset, not epoch")
	}
}

func TestDecodeIgnoresReservedLowBits(t *testing.T) {
	packed := int64(2025)<<16 | 100*128
	want, _ := dates.Decode(packed)
	// Low seven bits are reserved sub-day resolution; they must not move the day.
	got, ok := dates.Decode(packed + 127)
	if !ok || got != want {
		t.Fatalf("Decode with low bits set = %v, want %v", got, want)
	}
}

func TestDecodeBestEffortOnOddYears(t *testing.T) {
	// A year the host would never write still decodes without panicking.
	got, ok := dates.Decode(int64(9)<<16 | 10*128)
	if !ok {
		t.Fatal("expected best-effort decode")
	}
	if got.Year != 9 || got.Month != time.January || got.Day != 11 {
		t.Fatalf("got %v", got)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	codec := dates.Codec{}
	d := dates.New(2020, time.January, 1)
	end := dates.New(2030, time.January, 1)
	for d.Before(end) {
		got, ok := dates.Decode(codec.Encode(d))
		if !ok || got != d {
			t.Fatalf("round trip %s -> %v (ok=%v)", d, got, ok)
		}
		d = d.AddDays(1)
	}
}

func TestEncodeOffsetShiftsByDays(t *testing.T) {
	base := dates.Codec{}
	shifted := dates.Codec{OffsetDays: 33}
	d := dates.New(2025, time.June, 10)
	if got, want := shifted.Encode(d), base.Encode(d)+33*128; got != want {
		t.Fatalf("offset encode = %d, want %d", got, want)
	}
	// The offset shifts the value by whole days, so decoding lands 33 days on.
	decoded, _ := dates.Decode(shifted.Encode(d))
	if decoded != d.AddDays(33) {
		t.Fatalf("decoded %v, want %v", decoded, d.AddDays(33))
	}
}

func TestEncodeYearRollover(t *testing.T) {
	codec := dates.Codec{}
	dec31 := dates.New(2024, time.December, 31)
	jan1 := dates.New(2025, time.January, 1)
	// Day-of-year resets with the year; the packed values are not adjacent.
	if codec.Encode(jan1) != int64(2025)<<16 {
		t.Fatalf("Jan 1 should pack with day-of-year zero")
	}
	if codec.Encode(dec31) != int64(2024)<<16|365*128 {
		t.Fatalf("leap Dec 31 should pack as day-of-year 365")
	}
}

func TestDayBounds(t *testing.T) {
	codec := dates.Codec{}
	d := dates.New(2025, time.March, 5)
	lo, hi := codec.DayBounds(d)
	if hi-lo != 128 {
		t.Fatalf("day interval = %d, want 128", hi-lo)
	}
	if got, _ := dates.Decode(lo); got != d {
		t.Fatalf("lower bound decodes to %v", got)
	}
}

func TestParseAndString(t *testing.T) {
	d, err := dates.Parse("2025-08-31")
	if err != nil {
		t.Fatal(err)
	}
	if d.String() != "2025-08-31" {
		t.Fatalf("got %s", d)
	}
	if _, err := dates.Parse("31/08/2025"); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := dates.Parse("2025-13-01"); err == nil {
		t.Fatal("expected month range error")
	}
}

func TestFromTimeUsesLocalCalendarDay(t *testing.T) {
	zone := time.FixedZone("east", 10*3600)
	// 23:30 local on the 14th is already the 15th in UTC; the local day wins.
	instant := time.Date(2025, time.April, 14, 23, 30, 0, 0, zone)
	if got := dates.FromTime(instant); got != dates.New(2025, time.April, 14) {
		t.Fatalf("got %v", got)
	}
}

func TestDateJSON(t *testing.T) {
	d := dates.New(2025, time.February, 3)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"2025-02-03"` {
		t.Fatalf("marshal = %s", b)
	}
	var back dates.Date
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back != d {
		t.Fatalf("round trip %v", back)
	}
}
