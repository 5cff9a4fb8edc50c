package flex

import (
	"regexp"
	"strconv"
	"strings"
)

// Item is one flattened equipment record. Nesting in the source tree is
// replaced by ParentResourceID back-references; a nil parent means the item
// is top-level within its container (rack interior or loose list).
type Item struct {
	ResourceID       string
	Section          string
	Name             string
	Quantity         int
	RackUnits        int
	Notes            *string
	ParentResourceID *string
}

// Rack is a rack container found in the tree, with its interior already
// flattened. Nested racks inside a rack are discarded, not descended into.
type Rack struct {
	Name         string
	TotalSpaces  int
	IsDoubleWide bool
	Section      string
	Notes        *string
	Equipment    []Item
}

// ParsedPullsheet is the flattened form of one Flex equipment-list export.
type ParsedPullsheet struct {
	JobName        string
	RackDrawings   []Rack
	LooseEquipment []Item
}

var (
	// "14-Space", "14 Space", "14Space" (case-insensitive)
	spacesPattern = regexp.MustCompile(`(?i)(\d+)[-\s]?space`)
	// "2RU", "2 RU", "2-RU" (case-insensitive, word boundary after RU)
	rackUnitsPattern = regexp.MustCompile(`(?i)(\d+)[-\s]?ru\b`)
)

// IsRackName reports whether a node name identifies a rack container.
func IsRackName(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "rack") && strings.Contains(lower, "space")
}

// extractSpaces pulls the space count out of a rack name, 0 if absent.
func extractSpaces(name string) int {
	return firstIntMatch(spacesPattern, name)
}

// extractRackUnits pulls the RU height out of an equipment name, 0 if absent.
func extractRackUnits(name string) int {
	return firstIntMatch(rackUnitsPattern, name)
}

func firstIntMatch(re *regexp.Regexp, s string) int {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// Flatten walks the decoded section forest and produces the flat pullsheet
// model. It is a pure function: all output lists are newly constructed, and
// output order mirrors document order (pre-order, parents before children).
func Flatten(sections []Section) ParsedPullsheet {
	p := ParsedPullsheet{}
	for _, sec := range sections {
		if p.JobName == "" && sec.JobName != "" {
			p.JobName = sec.JobName
		}
		racks, loose := classify(sec.Children, sec.Name)
		p.RackDrawings = append(p.RackDrawings, racks...)
		p.LooseEquipment = append(p.LooseEquipment, loose...)
	}
	return p
}

// classify sorts a section's nodes into rack containers and loose equipment.
//
//   - rack name: becomes a Rack with its interior flattened
//   - virtual group: transparent, children classified at this same level
//   - real equipment with children: the node and its whole subtree flatten
//     into the loose list, parent references chained
//   - leaf: a single loose item with no parent
func classify(nodes []RawNode, section string) ([]Rack, []Item) {
	var racks []Rack
	var loose []Item

	for _, n := range nodes {
		switch {
		case IsRackName(n.Name):
			racks = append(racks, Rack{
				Name:         n.Name,
				TotalSpaces:  extractSpaces(n.Name),
				IsDoubleWide: strings.Contains(strings.ToLower(n.Name), "doublewide"),
				Section:      section,
				Notes:        n.Note,
				Equipment:    flattenSubtree(n.Children, section, nil),
			})

		case len(n.Children) > 0 && n.IsVirtual:
			subRacks, subLoose := classify(n.Children, section)
			racks = append(racks, subRacks...)
			loose = append(loose, subLoose...)

		case len(n.Children) > 0:
			loose = append(loose, flattenSubtree([]RawNode{n}, section, nil)...)

		default:
			loose = append(loose, newItem(n, section, nil))
		}
	}
	return racks, loose
}

// flattenSubtree emits nodes in pre-order with parent set to the given
// resource id, recursing with each node's own id as the new parent. Racks
// encountered inside a subtree are skipped entirely.
func flattenSubtree(nodes []RawNode, section string, parent *string) []Item {
	var items []Item
	for _, n := range nodes {
		if IsRackName(n.Name) {
			continue
		}
		items = append(items, newItem(n, section, parent))
		if len(n.Children) > 0 {
			id := n.ResourceID
			items = append(items, flattenSubtree(n.Children, section, &id)...)
		}
	}
	return items
}

func newItem(n RawNode, section string, parent *string) Item {
	qty := 1
	if n.Quantity != nil {
		qty = *n.Quantity
	}
	return Item{
		ResourceID:       n.ResourceID,
		Section:          section,
		Name:             n.Name,
		Quantity:         qty,
		RackUnits:        extractRackUnits(n.Name),
		Notes:            n.Note,
		ParentResourceID: parent,
	}
}
