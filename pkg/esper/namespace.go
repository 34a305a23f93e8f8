package esper

import (
	"sort"
	"strings"
)

// rootGID is the always-present root group id (§3).
const rootGID uint32 = 1

// GroupInfo mirrors a single read_group_info response (§3).
type GroupInfo struct {
	GID       uint32
	PID       uint32
	Key       string
	NumVars   uint32
	NumGroups uint32
	TS        uint32
	WC        uint32
	Option    VarOption
	Status    VarStatus
}

// VariableInfo mirrors a single read_var_info response (§3).
type VariableInfo struct {
	VID                   uint32
	GID                   uint32
	Key                   string
	TS                    uint32
	WC                    uint32
	Type                  VariableType
	NumElements           uint32
	MaxElementsPerRequest uint32
	Option                VarOption
	Status                VarStatus
}

// EndpointInfo mirrors a read_endpoint_info response (§3).
type EndpointInfo struct {
	HardwareID      string
	DeviceType      string
	DeviceName      string
	DeviceRev       string
	Uptime          uint32
	TickCount       uint32
	DeviceID        uint32
	LogLevel        int32
	AlarmLevel      int32
	LogID           uint32
	NumModules      uint32
	NumVars         uint32
	NumStorableVars uint32
	NumGroups       uint32
	NumAlarms       uint32
	APIVersion      uint8
}

// groupNode is one arena-indexed entry of the namespace tree (Design Notes
// §9): children are referenced only by id, never by pointer, so ascent via
// PID never needs an owning back-reference.
type groupNode struct {
	childGroups map[string]uint32
	childVars   map[string]uint32
}

func newGroupNode() groupNode {
	return groupNode{childGroups: make(map[string]uint32), childVars: make(map[string]uint32)}
}

// Namespace is the group/variable tree built once at connect time (§4.7),
// indexed by dense ids with index 0 reserved as the "absent" sentinel.
type Namespace struct {
	groups []GroupInfo    // index by gid
	vars   []VariableInfo // index by vid
	tree   []groupNode    // index by gid
}

// NewNamespace builds a Namespace from the full set of group and variable
// records, in the order of the teacher's group/variable tree construction in
// original_source/src/espertool/console.py's InteractiveMode.__init__.
func NewNamespace(groups []GroupInfo, vars []VariableInfo) *Namespace {
	maxGID := rootGID
	for _, g := range groups {
		if g.GID > maxGID {
			maxGID = g.GID
		}
	}
	maxVID := uint32(0)
	for _, v := range vars {
		if v.VID > maxVID {
			maxVID = v.VID
		}
	}

	ns := &Namespace{
		groups: make([]GroupInfo, maxGID+1),
		vars:   make([]VariableInfo, maxVID+1),
		tree:   make([]groupNode, maxGID+1),
	}
	for i := range ns.tree {
		ns.tree[i] = newGroupNode()
	}

	for _, g := range groups {
		ns.groups[g.GID] = g
	}
	for _, v := range vars {
		ns.vars[v.VID] = v
	}

	for _, g := range groups {
		if g.GID == 0 || g.PID == g.GID {
			continue // root (or any self-parented group) has no parent entry to add
		}
		ns.tree[g.PID].childGroups[g.Key] = g.GID
	}
	for _, v := range vars {
		ns.tree[v.GID].childVars[v.Key] = v.VID
	}

	return ns
}

// Group returns the group record for gid, or false if gid is out of range or
// absent.
func (ns *Namespace) Group(gid uint32) (GroupInfo, bool) {
	if gid == 0 || int(gid) >= len(ns.groups) {
		return GroupInfo{}, false
	}
	g := ns.groups[gid]
	return g, g.GID != 0 || gid == rootGID
}

// Var returns the variable record for vid, or false if vid is out of range
// or absent.
func (ns *Namespace) Var(vid uint32) (VariableInfo, bool) {
	if vid == 0 || int(vid) >= len(ns.vars) {
		return VariableInfo{}, false
	}
	v := ns.vars[vid]
	return v, v.VID != 0
}

func (ns *Namespace) splitSegments(path string) []string {
	return strings.Split(path, "/")
}

// GetGIDFromPath resolves path (absolute if it starts with "/", else
// relative to currentGID) to a group id, per §4.7. ".." at the root stays at
// the root (Open Question, resolved in SPEC_FULL.md). Any segment that
// doesn't name a child group (and isn't "..") resolves to the sentinel 0.
func (ns *Namespace) GetGIDFromPath(path string, currentGID uint32) uint32 {
	gid := currentGID
	if strings.HasPrefix(path, "/") {
		gid = rootGID
	}
	for _, seg := range ns.splitSegments(path) {
		switch {
		case seg == "":
			continue
		case seg == "..":
			if gid != rootGID {
				if g, ok := ns.Group(gid); ok {
					gid = g.PID
				}
			}
		default:
			cg, ok := ns.tree[gid].childGroups[seg]
			if !ok {
				return 0
			}
			gid = cg
		}
	}
	return gid
}

// GetVIDFromPath resolves path to a variable id, descending through groups
// for every segment but the (optional) last, which may name a variable in
// the group reached so far (§4.7). Returns the sentinel 0 if path doesn't
// name a variable.
func (ns *Namespace) GetVIDFromPath(path string, currentGID uint32) uint32 {
	gid := currentGID
	if strings.HasPrefix(path, "/") {
		gid = rootGID
	}
	segs := ns.splitSegments(path)
	for i, seg := range segs {
		switch {
		case seg == "":
			continue
		case seg == "..":
			if gid != rootGID {
				if g, ok := ns.Group(gid); ok {
					gid = g.PID
				}
			}
		default:
			if cg, ok := ns.tree[gid].childGroups[seg]; ok {
				gid = cg
				continue
			}
			if vid, ok := ns.tree[gid].childVars[seg]; ok && i == len(segs)-1 {
				return vid
			}
			return 0
		}
	}
	return 0 // resolved to a group, not a variable
}

// GetPathFromGID renders the canonical absolute path of gid by walking PID
// links to the root (§8 path idempotence property).
func (ns *Namespace) GetPathFromGID(gid uint32) string {
	var parts []string
	for gid != rootGID {
		g, ok := ns.Group(gid)
		if !ok {
			break
		}
		parts = append([]string{g.Key}, parts...)
		gid = g.PID
	}
	return "/" + strings.Join(parts, "/")
}

// Complete returns prefix-matched completions for prefix within the group
// resolved from basePath (relative to currentGID). Group names are
// suffixed with "/"; if includeVars is set, variable names are included
// unsuffixed. If nothing matches prefix, the full listing is returned
// (§4.7).
func (ns *Namespace) Complete(basePath, prefix string, currentGID uint32, includeVars bool) []string {
	gid := ns.GetGIDFromPath(strings.TrimSpace(basePath), currentGID)
	if gid == 0 {
		gid = currentGID
	}
	if int(gid) >= len(ns.tree) {
		return nil
	}
	node := ns.tree[gid]

	collect := func(matchPrefix bool) []string {
		var out []string
		for key := range node.childGroups {
			if !matchPrefix || strings.HasPrefix(key, prefix) {
				out = append(out, key+"/")
			}
		}
		if includeVars {
			for key := range node.childVars {
				if !matchPrefix || strings.HasPrefix(key, prefix) {
					out = append(out, key)
				}
			}
		}
		return out
	}

	result := collect(true)
	if len(result) == 0 {
		result = collect(false)
	}
	sort.Strings(result)
	return result
}
