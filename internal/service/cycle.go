package service

import "familytree/internal/models"

// ParentLister returns the recorded parents of a member, skipping one
// relationship (0 skips nothing)
type ParentLister interface {
	ParentIDs(childID, excludeID int64) ([]int64, error)
}

// CycleDetector rejects parent links that would make a member its own ancestor
type CycleDetector struct {
	parents ParentLister
}

// NewCycleDetector creates a detector reading ancestry from parents
func NewCycleDetector(parents ParentLister) *CycleDetector {
	return &CycleDetector{parents: parents}
}

// WouldCreateCycle reports whether adding the edge (fromID, toID, relType)
// closes an ancestry loop. Spouse edges never do. excludeID names the edge
// being edited so the check runs against the graph without it.
//
// The walk climbs from the proposed parent through its recorded ancestors
// with an explicit stack; meeting the proposed child means the child is
// already above the parent.
func (d *CycleDetector) WouldCreateCycle(fromID, toID int64, relType models.RelationshipType, excludeID int64) (bool, error) {
	parentID, childID, ok := models.ParentLink(fromID, toID, relType)
	if !ok {
		return false, nil
	}
	if parentID == childID {
		return true, nil
	}

	visited := map[int64]bool{parentID: true}
	stack := []int64{parentID}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		ancestors, err := d.parents.ParentIDs(current, excludeID)
		if err != nil {
			return false, err
		}
		for _, id := range ancestors {
			if id == childID {
				return true, nil
			}
			if visited[id] {
				continue
			}
			visited[id] = true
			stack = append(stack, id)
		}
	}
	return false, nil
}
