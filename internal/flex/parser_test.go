package flex

import (
	"reflect"
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

// ============================================================================
// Name pattern extraction
// ============================================================================

func TestIsRackName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"FOH 14-Space Rack", true},
		{"foh 14-space rack", true},
		{"MON 8 Space Rack Doublewide", true},
		{"Rack of doom", false},       // no space token
		{"14-Space shelf", false},     // no rack token
		{"Waves Server 2RU", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsRackName(tt.name); got != tt.want {
			t.Errorf("IsRackName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestExtractSpaces(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"FOH 14-Space Rack", 14},
		{"FOH 14 Space Rack", 14},
		{"MON 8-space rack", 8},
		{"Amp Rack 20Space", 20},
		{"Utility Rack", 0}, // no count token
		{"", 0},
	}
	for _, tt := range tests {
		if got := extractSpaces(tt.name); got != tt.want {
			t.Errorf("extractSpaces(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestExtractRackUnits(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"Waves Server 2RU", 2},
		{"DiGiCo SD12 - 10RU", 10},
		{"Processor 1 RU", 1},
		{"Drawer 3-RU", 3},
		{"Shure SM58", 0},
		{"Truck", 0},   // "ru" inside a word does not match
		{"2RUNNER", 0}, // RU must end at a word boundary
	}
	for _, tt := range tests {
		if got := extractRackUnits(tt.name); got != tt.want {
			t.Errorf("extractRackUnits(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

// ============================================================================
// Flatten
// ============================================================================

func TestFlatten_EmptyInput(t *testing.T) {
	for _, sections := range [][]Section{nil, {}} {
		got := Flatten(sections)
		if got.JobName != "" || len(got.RackDrawings) != 0 || len(got.LooseEquipment) != 0 {
			t.Errorf("Flatten(%v) = %+v, want empty pullsheet", sections, got)
		}
	}
}

func TestFlatten_RackAndLooseLeaf(t *testing.T) {
	sections := []Section{{
		Name:    "FOH",
		JobName: "Summer Tour 2026",
		Children: []RawNode{
			{
				ResourceID: "rack-001",
				Name:       "FOH 14-Space Rack",
				Children: []RawNode{
					{ResourceID: "equip-001", Name: "Waves Server 2RU"},
				},
			},
			{ResourceID: "equip-002", Name: "Shure SM58", Quantity: intPtr(4)},
		},
	}}

	got := Flatten(sections)

	if got.JobName != "Summer Tour 2026" {
		t.Errorf("JobName = %q, want %q", got.JobName, "Summer Tour 2026")
	}
	if len(got.RackDrawings) != 1 {
		t.Fatalf("RackDrawings = %d, want 1", len(got.RackDrawings))
	}

	rack := got.RackDrawings[0]
	if rack.TotalSpaces != 14 {
		t.Errorf("TotalSpaces = %d, want 14", rack.TotalSpaces)
	}
	if rack.IsDoubleWide {
		t.Error("IsDoubleWide = true, want false")
	}
	if rack.Section != "FOH" {
		t.Errorf("rack Section = %q, want FOH", rack.Section)
	}
	if len(rack.Equipment) != 1 {
		t.Fatalf("rack equipment = %d items, want 1", len(rack.Equipment))
	}
	server := rack.Equipment[0]
	if server.Quantity != 1 {
		t.Errorf("server Quantity = %d, want default 1", server.Quantity)
	}
	if server.RackUnits != 2 {
		t.Errorf("server RackUnits = %d, want 2", server.RackUnits)
	}
	if server.ParentResourceID != nil {
		t.Errorf("server ParentResourceID = %v, want nil", *server.ParentResourceID)
	}

	if len(got.LooseEquipment) != 1 {
		t.Fatalf("LooseEquipment = %d items, want 1", len(got.LooseEquipment))
	}
	mic := got.LooseEquipment[0]
	if mic.Quantity != 4 || mic.RackUnits != 0 || mic.ParentResourceID != nil {
		t.Errorf("loose item = %+v, want quantity 4, rackUnits 0, nil parent", mic)
	}
}

func TestFlatten_TwoRacksInDocumentOrder(t *testing.T) {
	sections := []Section{{
		Name: "FOH",
		Children: []RawNode{
			{ResourceID: "r1", Name: "FOH 14-Space Rack"},
			{ResourceID: "r2", Name: "FOH 8-Space Rack"},
		},
	}}

	got := Flatten(sections)
	if len(got.RackDrawings) != 2 {
		t.Fatalf("RackDrawings = %d, want 2", len(got.RackDrawings))
	}
	if got.RackDrawings[0].TotalSpaces != 14 || got.RackDrawings[1].TotalSpaces != 8 {
		t.Errorf("TotalSpaces = %d,%d want 14,8",
			got.RackDrawings[0].TotalSpaces, got.RackDrawings[1].TotalSpaces)
	}
}

func TestFlatten_DoubleWide(t *testing.T) {
	sections := []Section{{
		Name: "MON",
		Children: []RawNode{
			{ResourceID: "r1", Name: "MON 16-Space Doublewide Rack"},
		},
	}}

	got := Flatten(sections)
	if len(got.RackDrawings) != 1 || !got.RackDrawings[0].IsDoubleWide {
		t.Errorf("expected one doublewide rack, got %+v", got.RackDrawings)
	}
}

func TestFlatten_VirtualGroupIsTransparent(t *testing.T) {
	sections := []Section{{
		Name: "FOH",
		Children: []RawNode{
			{
				ResourceID: "group-1",
				Name:       "Audio Package",
				IsVirtual:  true,
				Children: []RawNode{
					{ResourceID: "r1", Name: "FOH 14-Space Rack"},
					{ResourceID: "equip-001", Name: "Shure SM58"},
				},
			},
		},
	}}

	got := Flatten(sections)
	if len(got.RackDrawings) != 1 {
		t.Fatalf("RackDrawings = %d, want 1 (rack inside virtual group)", len(got.RackDrawings))
	}
	if len(got.LooseEquipment) != 1 {
		t.Fatalf("LooseEquipment = %d, want 1", len(got.LooseEquipment))
	}
	for _, item := range got.LooseEquipment {
		if item.ResourceID == "group-1" || item.Name == "Audio Package" {
			t.Error("virtual group node emitted as equipment")
		}
	}
	// The virtual group's children classify at section level: the leaf has
	// no parent reference to the group.
	if got.LooseEquipment[0].ParentResourceID != nil {
		t.Errorf("ParentResourceID = %v, want nil", *got.LooseEquipment[0].ParentResourceID)
	}
}

func TestFlatten_EquipmentWithChildren(t *testing.T) {
	sections := []Section{{
		Name: "FOH",
		Children: []RawNode{
			{
				ResourceID: "case-1",
				Name:       "Workbox",
				Children: []RawNode{
					{ResourceID: "equip-001", Name: "Gaff Tape", Quantity: intPtr(10)},
				},
			},
		},
	}}

	got := Flatten(sections)
	if len(got.LooseEquipment) != 2 {
		t.Fatalf("LooseEquipment = %d, want 2 (parent then child)", len(got.LooseEquipment))
	}
	parent, child := got.LooseEquipment[0], got.LooseEquipment[1]
	if parent.ResourceID != "case-1" || parent.ParentResourceID != nil {
		t.Errorf("parent = %+v, want case-1 with nil parent", parent)
	}
	if child.ResourceID != "equip-001" || child.ParentResourceID == nil || *child.ParentResourceID != "case-1" {
		t.Errorf("child = %+v, want equip-001 with parent case-1", child)
	}
}

func TestFlatten_DeepNestingChainsParents(t *testing.T) {
	sections := []Section{{
		Name: "FOH",
		Children: []RawNode{
			{
				ResourceID: "a",
				Name:       "Case A",
				Children: []RawNode{
					{
						ResourceID: "b",
						Name:       "Tray B",
						Children: []RawNode{
							{ResourceID: "c", Name: "Cable C"},
						},
					},
				},
			},
		},
	}}

	got := Flatten(sections)
	if len(got.LooseEquipment) != 3 {
		t.Fatalf("LooseEquipment = %d, want 3", len(got.LooseEquipment))
	}
	wantParents := []*string{nil, strPtr("a"), strPtr("b")}
	for i, item := range got.LooseEquipment {
		switch {
		case wantParents[i] == nil && item.ParentResourceID != nil:
			t.Errorf("item %d parent = %q, want nil", i, *item.ParentResourceID)
		case wantParents[i] != nil && (item.ParentResourceID == nil || *item.ParentResourceID != *wantParents[i]):
			t.Errorf("item %d parent = %v, want %q", i, item.ParentResourceID, *wantParents[i])
		}
	}
}

func TestFlatten_NestedRackIsDiscarded(t *testing.T) {
	sections := []Section{{
		Name: "FOH",
		Children: []RawNode{
			{
				ResourceID: "r1",
				Name:       "FOH 14-Space Rack",
				Children: []RawNode{
					{ResourceID: "r2", Name: "Inner 4-Space Rack",
						Children: []RawNode{{ResourceID: "x", Name: "Hidden Thing"}}},
					{ResourceID: "equip-001", Name: "Amp"},
				},
			},
		},
	}}

	got := Flatten(sections)
	if len(got.RackDrawings) != 1 {
		t.Fatalf("RackDrawings = %d, want 1 (nested rack not promoted)", len(got.RackDrawings))
	}
	rack := got.RackDrawings[0]
	if len(rack.Equipment) != 1 || rack.Equipment[0].ResourceID != "equip-001" {
		t.Errorf("rack equipment = %+v, want only equip-001", rack.Equipment)
	}
	for _, item := range rack.Equipment {
		if IsRackName(item.Name) {
			t.Errorf("rack equipment contains rack-named record %q", item.Name)
		}
	}
}

func TestFlatten_JobNameFromFirstNamedSection(t *testing.T) {
	sections := []Section{
		{Name: "FOH"},
		{Name: "MON", JobName: "First"},
		{Name: "RF", JobName: "Second"},
	}

	got := Flatten(sections)
	if got.JobName != "First" {
		t.Errorf("JobName = %q, want %q", got.JobName, "First")
	}
}

func TestFlatten_ParentReferencesResolveWithinParse(t *testing.T) {
	sections := []Section{{
		Name: "FOH",
		Children: []RawNode{
			{
				ResourceID: "rack-1",
				Name:       "FOH 12-Space Rack",
				Children: []RawNode{
					{ResourceID: "p1", Name: "Drawer 2RU", Children: []RawNode{
						{ResourceID: "c1", Name: "DI Box"},
					}},
				},
			},
			{ResourceID: "p2", Name: "Workbox", Children: []RawNode{
				{ResourceID: "c2", Name: "Multitool"},
			}},
		},
	}}

	got := Flatten(sections)

	ids := make(map[string]bool)
	var all []Item
	for _, r := range got.RackDrawings {
		all = append(all, r.Equipment...)
	}
	all = append(all, got.LooseEquipment...)
	for _, item := range all {
		ids[item.ResourceID] = true
	}
	for _, item := range all {
		if item.ParentResourceID != nil && !ids[*item.ParentResourceID] {
			t.Errorf("item %q references parent %q not present in parse", item.ResourceID, *item.ParentResourceID)
		}
	}
}

func TestFlatten_Idempotent(t *testing.T) {
	sections := []Section{{
		Name:    "FOH",
		JobName: "Corporate Gala",
		Children: []RawNode{
			{ResourceID: "r1", Name: "FOH 14-Space Rack", Note: strPtr("wheels"), Children: []RawNode{
				{ResourceID: "e1", Name: "Waves Server 2RU"},
			}},
			{ResourceID: "g1", Name: "Grouping", IsVirtual: true, Children: []RawNode{
				{ResourceID: "e2", Name: "Shure SM58", Quantity: intPtr(6)},
			}},
		},
	}}

	first := Flatten(sections)
	second := Flatten(sections)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Flatten not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

// ============================================================================
// Decode
// ============================================================================

func TestDecodeSections(t *testing.T) {
	payload := `[
		{
			"name": "FOH",
			"upstreamLink": {"elementName": "Summer Tour 2026"},
			"children": [
				{"resourceId": "e1", "name": "Shure SM58", "quantity": 4, "note": "spares"},
				{"resourceId": "g1", "name": "Audio Package", "isVirtual": true, "children": [
					{"resourceId": "e2", "name": "Waves Server 2RU", "quantity": "2"}
				]},
				{"bogus": true},
				"not an object"
			]
		}
	]`

	sections, err := DecodeSections(strings.NewReader(payload))
	if err != nil {
		t.Fatalf("DecodeSections() error = %v", err)
	}
	if len(sections) != 1 {
		t.Fatalf("sections = %d, want 1", len(sections))
	}

	sec := sections[0]
	if sec.Name != "FOH" || sec.JobName != "Summer Tour 2026" {
		t.Errorf("section = %+v, want FOH / Summer Tour 2026", sec)
	}
	// Shapeless entries are dropped.
	if len(sec.Children) != 2 {
		t.Fatalf("children = %d, want 2", len(sec.Children))
	}

	mic := sec.Children[0]
	if mic.Quantity == nil || *mic.Quantity != 4 {
		t.Errorf("mic quantity = %v, want 4", mic.Quantity)
	}
	if mic.Note == nil || *mic.Note != "spares" {
		t.Errorf("mic note = %v, want spares", mic.Note)
	}

	group := sec.Children[1]
	if !group.IsVirtual || len(group.Children) != 1 {
		t.Fatalf("group = %+v, want virtual with one child", group)
	}
	// Numeric string quantity is coerced.
	if q := group.Children[0].Quantity; q == nil || *q != 2 {
		t.Errorf("nested quantity = %v, want 2", q)
	}
}

func TestDecodeSections_NonArrayPayload(t *testing.T) {
	sections, err := DecodeSections(strings.NewReader(`{"error": "no access"}`))
	if err != nil {
		t.Fatalf("DecodeSections() error = %v, want nil for non-array JSON", err)
	}
	if len(sections) != 0 {
		t.Errorf("sections = %d, want 0", len(sections))
	}
}

func TestDecodeSections_MalformedJSON(t *testing.T) {
	if _, err := DecodeSections(strings.NewReader(`[{`)); err == nil {
		t.Fatal("DecodeSections() succeeded on malformed JSON, want error")
	}
}
