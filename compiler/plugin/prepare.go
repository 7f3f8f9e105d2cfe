package plugin

import (
	"github.com/pgforge/pgforge/capability"
)

// Prepare validates a configured plugin set and returns it in execution
// order. The steps run in order and short-circuit on the first failure:
//
//  1. duplicate plugin-name check
//  2. per-plugin config validation against the plugin's CUE schema
//  3. hierarchical expansion of every provided capability
//  4. provider-conflict detection over the expanded sets, so sibling
//     specific providers conflict on their shared implied ancestor
//  5. requirement satisfaction for every hard dependency; a plugin may
//     require a capability it itself provides
//  6. provider→requirer graph construction and a stable topological sort,
//     with unresolved residuals reported as a cycle
//
// Consumed capabilities add ordering edges when a provider exists; a
// consumed capability with no provider is left for the declaration pipeline
// to resolve against declared symbols.
func Prepare(plugins []Configured) ([]Configured, error) {
	seen := make(map[string]struct{}, len(plugins))
	for _, p := range plugins {
		if _, ok := seen[p.Name()]; ok {
			return nil, &DuplicateError{Name: p.Name()}
		}
		seen[p.Name()] = struct{}{}
	}

	for _, p := range plugins {
		if err := ValidateConfig(p.Name(), p.configSchema(), p.Config); err != nil {
			return nil, err
		}
	}

	expanded := make([]*capability.Set, len(plugins))
	for i, p := range plugins {
		expanded[i] = capability.NewSet(p.Provides()...).Expanded()
	}

	if err := checkConflicts(plugins, expanded); err != nil {
		return nil, err
	}

	edges, err := dependencyEdges(plugins, expanded)
	if err != nil {
		return nil, err
	}

	order, err := topoSort(plugins, edges)
	if err != nil {
		return nil, err
	}
	out := make([]Configured, len(order))
	for i, idx := range order {
		out[i] = plugins[idx]
	}
	return out, nil
}

// checkConflicts fails when any capability, after expansion, has more than
// one provider. Iteration follows first-seen capability order so the
// reported conflict is deterministic.
func checkConflicts(plugins []Configured, expanded []*capability.Set) error {
	providers := make(map[string][]string)
	var order []capability.Capability
	for i, p := range plugins {
		for _, c := range expanded[i].All() {
			if _, ok := providers[c.String()]; !ok {
				order = append(order, c)
			}
			providers[c.String()] = append(providers[c.String()], p.Name())
		}
	}
	for _, c := range order {
		if names := providers[c.String()]; len(names) > 1 {
			return &ConflictError{Capability: c, Providers: names}
		}
	}
	return nil
}

// dependencyEdges resolves every hard and soft dependency to its provider
// and returns the provider→requirer adjacency as an edge set.
func dependencyEdges(plugins []Configured, expanded []*capability.Set) (map[[2]int]struct{}, error) {
	edges := make(map[[2]int]struct{})
	provider := func(c capability.Capability) (int, bool) {
		for j := range plugins {
			if expanded[j].Has(c) {
				return j, true
			}
		}
		return 0, false
	}
	for i, p := range plugins {
		for _, req := range p.requires() {
			j, ok := provider(req)
			if !ok {
				return nil, &NotSatisfiedError{Required: req, RequiredBy: p.Name()}
			}
			// Self-reference is legal and satisfied trivially.
			if j != i {
				edges[[2]int{j, i}] = struct{}{}
			}
		}
		for _, con := range p.consumes() {
			if j, ok := provider(con); ok && j != i {
				edges[[2]int{j, i}] = struct{}{}
			}
		}
	}
	return edges, nil
}

// topoSort orders plugin indices so every provider precedes its requirers,
// breaking ties by input order. Any residual means a cycle.
func topoSort(plugins []Configured, edges map[[2]int]struct{}) ([]int, error) {
	n := len(plugins)
	indegree := make([]int, n)
	succ := make([][]int, n)
	for e := range edges {
		succ[e[0]] = append(succ[e[0]], e[1])
		indegree[e[1]]++
	}
	placed := make([]bool, n)
	order := make([]int, 0, n)
	for len(order) < n {
		next := -1
		for i := 0; i < n; i++ {
			if !placed[i] && indegree[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			return nil, &CycleError{Cycle: extractCycle(plugins, placed, edges)}
		}
		placed[next] = true
		order = append(order, next)
		for _, s := range succ[next] {
			indegree[s]--
		}
	}
	return order, nil
}

// extractCycle walks predecessor edges in the residual graph until a node
// repeats. Every residual node has an unplaced predecessor, so the walk
// always closes a loop; the result is reported in provider→requirer order.
func extractCycle(plugins []Configured, placed []bool, edges map[[2]int]struct{}) []string {
	pred := make(map[int]int)
	for e := range edges {
		if !placed[e[0]] && !placed[e[1]] {
			if _, ok := pred[e[1]]; !ok {
				pred[e[1]] = e[0]
			}
		}
	}
	start := -1
	for i := range plugins {
		if !placed[i] {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}
	visited := make(map[int]int) // node -> position in path
	var path []int
	cur := start
	for {
		if pos, ok := visited[cur]; ok {
			path = path[pos:]
			break
		}
		visited[cur] = len(path)
		path = append(path, cur)
		cur = pred[cur]
	}
	// The walk followed predecessors; reverse for provider→requirer order.
	names := make([]string, len(path))
	for i, idx := range path {
		names[len(path)-1-i] = plugins[idx].Name()
	}
	return names
}
