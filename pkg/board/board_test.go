package board

import "testing"

func TestWakeMaskDefault(t *testing.T) {
	if got := WakeMask(ButtonA, ButtonB); got != 0xC000 {
		t.Fatalf("expected 0xC000, got 0x%X", got)
	}
	if got := WakeMask(); got != 0 {
		t.Fatalf("expected 0 for no buttons, got 0x%X", got)
	}
}

func TestWakeMaskRoundTrip(t *testing.T) {
	// Every subset of the four buttons.
	for set := 0; set < 1<<len(Buttons); set++ {
		var in []Button
		for i, b := range Buttons {
			if set&(1<<i) != 0 {
				in = append(in, b)
			}
		}

		out, err := ButtonsFromMask(WakeMask(in...))
		if err != nil {
			t.Fatalf("ButtonsFromMask returned error: %v", err)
		}
		if len(out) != len(in) {
			t.Fatalf("set %04b: got %v, want %v", set, out, in)
		}
		for i := range in {
			if in[i] != out[i] {
				t.Fatalf("set %04b: got %v, want %v", set, out, in)
			}
		}
	}
}

func TestButtonsFromMaskRejectsOtherPins(t *testing.T) {
	if _, err := ButtonsFromMask(0xC000 | 1<<5); err == nil {
		t.Fatalf("expected an error for GPIO5")
	}
}

func TestParseButtons(t *testing.T) {
	got, err := ParseButtons([]string{"a", " D "})
	if err != nil {
		t.Fatalf("ParseButtons returned error: %v", err)
	}
	if len(got) != 2 || got[0] != ButtonA || got[1] != ButtonD {
		t.Fatalf("unexpected buttons %v", got)
	}

	if _, err := ParseButtons([]string{"A", "E"}); err == nil {
		t.Fatalf("expected an error for button E")
	}
}

func TestButtonString(t *testing.T) {
	if ButtonC.String() != "C" || ButtonC.GPIO() != 12 {
		t.Fatalf("unexpected button C: %s/%d", ButtonC, ButtonC.GPIO())
	}
	if got := Button(3).String(); got != "GPIO3" {
		t.Fatalf("unexpected name %q", got)
	}
}
