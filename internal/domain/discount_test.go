package domain

import "testing"

func TestDiscountCatalog_Lookup(t *testing.T) {
	catalog := DefaultDiscountCatalog()

	tests := []struct {
		code   string
		wantOK bool
	}{
		{code: "SAVE10", wantOK: true},
		{code: "save10", wantOK: true},
		{code: "Save10", wantOK: true},
		{code: "FREESHIP", wantOK: true},
		{code: "EXPIRED99", wantOK: false},
		{code: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			rule, ok := catalog.Lookup(tt.code)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if ok && rule.Code == "" {
				t.Fatal("matched rule must carry its code")
			}
		})
	}
}

func TestDefaultDiscountCatalog(t *testing.T) {
	catalog := DefaultDiscountCatalog()

	save10, ok := catalog.Lookup("SAVE10")
	if !ok {
		t.Fatal("SAVE10 must exist")
	}
	if save10.Kind != DiscountPercentage || save10.Value != 10 || save10.MinimumSubtotal != 50000 {
		t.Fatalf("unexpected SAVE10 rule: %+v", save10)
	}

	freeship, ok := catalog.Lookup("FREESHIP")
	if !ok {
		t.Fatal("FREESHIP must exist")
	}
	if freeship.Kind != DiscountFreeDelivery {
		t.Fatalf("unexpected FREESHIP kind: %s", freeship.Kind)
	}
}
