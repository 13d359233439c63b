// README: Booking record and validator tests (rules, idempotence, merge policy).
package booking

import (
	"testing"
	"time"
)

func fixedClock() time.Time {
	return time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
}

func validRecord() *Record {
	return &Record{
		Origin:       String("Paris"),
		Destination:  String("London"),
		OutboundDate: String("2026-10-20"),
		ReturnDate:   String("2026-10-30"),
		Budget:       String("1500"),
		Currency:     "Dollars",
	}
}

func TestValidatorIdempotentOnValidRecord(t *testing.T) {
	v := NewValidator(fixedClock)
	r := validRecord()
	want := *validRecord()

	for i := 0; i < 2; i++ {
		checks := []*Violation{
			v.CheckOrigin(r),
			v.CheckDestination(r),
			v.CheckOutboundDate(r),
			v.CheckReturnDate(r),
			v.CheckBudget(r),
		}
		for j, got := range checks {
			if got != nil {
				t.Fatalf("pass %d check %d: unexpected violation %+v", i, j, got)
			}
		}
	}
	if Value(r.Origin) != Value(want.Origin) || Value(r.Destination) != Value(want.Destination) ||
		Value(r.OutboundDate) != Value(want.OutboundDate) || Value(r.ReturnDate) != Value(want.ReturnDate) ||
		Value(r.Budget) != Value(want.Budget) || r.Currency != want.Currency {
		t.Fatalf("record changed: %+v", r)
	}
}

func TestSameLocationClearsOwningSlot(t *testing.T) {
	v := NewValidator(fixedClock)

	r := &Record{Origin: String("Paris"), Destination: String(" paris ")}
	got := v.CheckDestination(r)
	if got == nil || got.Slot != SlotDestination || got.Message != MsgSameLocation {
		t.Fatalf("expected destination violation, got %+v", got)
	}
	if r.Destination != nil || r.Origin == nil {
		t.Fatalf("expected only destination cleared, got %+v", r)
	}

	r = &Record{Origin: String("Paris"), Destination: String("Paris")}
	got = v.CheckOrigin(r)
	if got == nil || got.Slot != SlotOrigin {
		t.Fatalf("expected origin violation, got %+v", got)
	}
	if r.Origin != nil || r.Destination == nil {
		t.Fatalf("expected only origin cleared, got %+v", r)
	}
}

func TestDateRules(t *testing.T) {
	v := NewValidator(fixedClock)
	cases := []struct {
		name    string
		record  Record
		check   func(*Record) *Violation
		slot    Slot
		message string
	}{
		{"outbound in the past", Record{OutboundDate: String("2026-10-16")}, v.CheckOutboundDate, SlotOutboundDate, MsgPastDate},
		{"outbound after return", Record{OutboundDate: String("2026-11-10"), ReturnDate: String("2026-11-01")}, v.CheckOutboundDate, SlotOutboundDate, MsgDatesReversed},
		{"return in the past", Record{ReturnDate: String("2025-01-01")}, v.CheckReturnDate, SlotReturnDate, MsgPastDate},
		{"return before outbound", Record{OutboundDate: String("2026-11-10"), ReturnDate: String("2026-11-01")}, v.CheckReturnDate, SlotReturnDate, MsgDatesReversed},
	}
	for _, tc := range cases {
		r := tc.record
		held := Value(r.Get(tc.slot))
		got := tc.check(&r)
		if got == nil {
			t.Errorf("%s: expected violation", tc.name)
			continue
		}
		if got.Slot != tc.slot || got.Message != tc.message {
			t.Errorf("%s: got %+v", tc.name, got)
		}
		if got.Rejected != held {
			t.Errorf("%s: rejected = %q, want %q", tc.name, got.Rejected, held)
		}
		if r.Get(tc.slot) != nil {
			t.Errorf("%s: slot %s not cleared", tc.name, tc.slot)
		}
	}
}

func TestDateRulesAcceptTodayAndSameDay(t *testing.T) {
	v := NewValidator(fixedClock)
	r := &Record{OutboundDate: String("2026-10-17"), ReturnDate: String("2026-10-17")}
	if got := v.CheckOutboundDate(r); got != nil {
		t.Fatalf("unexpected outbound violation %+v", got)
	}
	if got := v.CheckReturnDate(r); got != nil {
		t.Fatalf("unexpected return violation %+v", got)
	}
}

func TestDateRulesIgnoreAmbiguousDates(t *testing.T) {
	v := NewValidator(fixedClock)
	r := &Record{OutboundDate: String("2026-W43"), ReturnDate: String("XXXX-WXX-5")}
	if v.CheckOutboundDate(r) != nil || v.CheckReturnDate(r) != nil {
		t.Fatal("ambiguous dates must not be judged")
	}
	if r.OutboundDate == nil || r.ReturnDate == nil {
		t.Fatal("ambiguous dates must be kept")
	}
}

func TestCheckBudget(t *testing.T) {
	v := NewValidator(fixedClock)
	cases := []struct {
		raw   string
		want  string
		valid bool
	}{
		{"1500$", "1500", true},
		{"1,500", "1500", true},
		{"No more than 1500£", "1500", true},
		{"99,50", "99.5", true},
		{"0", "", false},
		{"-10", "", false},
		{"whatever", "", false},
	}
	for _, tc := range cases {
		r := &Record{Budget: String(tc.raw)}
		got := v.CheckBudget(r)
		if tc.valid {
			if got != nil {
				t.Errorf("CheckBudget(%q): unexpected violation", tc.raw)
				continue
			}
			if Value(r.Budget) != tc.want {
				t.Errorf("CheckBudget(%q) normalized to %q, want %q", tc.raw, Value(r.Budget), tc.want)
			}
			continue
		}
		if got == nil || got.Message != MsgInvalidBudget || r.Budget != nil {
			t.Errorf("CheckBudget(%q): expected cleared budget, got %+v / %v", tc.raw, got, r.Budget)
		}
	}
}

func TestMergeKeepsUnpopulatedFields(t *testing.T) {
	acc := &Record{Origin: String("Paris"), Budget: String("300"), Currency: "Euros"}
	acc.Merge(&Record{Destination: String("Rome"), Budget: String("500"), UnsupportedLocations: []string{"Atlantis"}})

	if Value(acc.Origin) != "Paris" || Value(acc.Destination) != "Rome" || Value(acc.Budget) != "500" {
		t.Fatalf("unexpected merge result %+v", acc)
	}
	if acc.Currency != "Euros" {
		t.Fatalf("currency overwritten: %q", acc.Currency)
	}
	if len(acc.UnsupportedLocations) != 1 || acc.UnsupportedLocations[0] != "Atlantis" {
		t.Fatalf("unsupported locations not accumulated: %v", acc.UnsupportedLocations)
	}
}

func TestIsEmptyAndClone(t *testing.T) {
	if !(&Record{}).IsEmpty() {
		t.Fatal("expected empty record")
	}
	r := validRecord()
	c := r.Clone()
	*c.Origin = "Berlin"
	if Value(r.Origin) != "Paris" {
		t.Fatal("clone shares storage with original")
	}
	if c.IsEmpty() {
		t.Fatal("clone should not be empty")
	}
}

func TestSummary(t *testing.T) {
	want := "I have you booked to **London** from **Paris** on *2026-10-20*\n\nthen from **London** to **Paris** on *2026-10-30* \n\nfor a budget of 1500 Dollars"
	if got := validRecord().Summary(); got != want {
		t.Fatalf("unexpected summary:\n%s", got)
	}
}
