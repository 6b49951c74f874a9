package costing

import (
	"sort"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain/entity"
)

// Graph grafo dueño → insumos de la composición de recetas.
type Graph struct {
	edges map[string][]string
}

// NewGraph construye el grafo a partir de las líneas existentes.
func NewGraph(lines []entity.RecipeLine) *Graph {
	g := &Graph{edges: make(map[string][]string)}
	for _, l := range lines {
		g.edges[l.OwnerID] = append(g.edges[l.OwnerID], l.IngredientID)
	}
	return g
}

// Replace sustituye las aristas de un dueño (simula replaceLines).
func (g *Graph) Replace(ownerID string, lines []entity.RecipeLine) {
	next := make([]string, 0, len(lines))
	for _, l := range lines {
		next = append(next, l.IngredientID)
	}
	g.edges[ownerID] = next
}

// FindCycle busca un ciclo alcanzable desde start (DFS con conjunto de visita).
// Devuelve *domain.CycleError con el camino, o nil.
func (g *Graph) FindCycle(start string) error {
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[string]int)
	var path []string

	var visit func(n string) error
	visit = func(n string) error {
		switch state[n] {
		case visiting:
			i := indexOf(path, n)
			if i < 0 {
				return &domain.CycleError{Path: []string{n, n}}
			}
			cycle := append([]string{}, path[i:]...)
			return &domain.CycleError{Path: append(cycle, n)}
		case done:
			return nil
		}
		state[n] = visiting
		path = append(path, n)
		for _, next := range g.edges[n] {
			if err := visit(next); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[n] = done
		return nil
	}
	return visit(start)
}

// Validate revisa todo el grafo (orden estable para errores reproducibles).
func (g *Graph) Validate() error {
	owners := make([]string, 0, len(g.edges))
	for o := range g.edges {
		owners = append(owners, o)
	}
	sort.Strings(owners)
	for _, o := range owners {
		if err := g.FindCycle(o); err != nil {
			return err
		}
	}
	return nil
}

// CheckReplace valida que reemplazar las líneas de ownerID no cree un ciclo.
func CheckReplace(existing []entity.RecipeLine, ownerID string, newLines []entity.RecipeLine) error {
	g := NewGraph(existing)
	g.Replace(ownerID, newLines)
	return g.FindCycle(ownerID)
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}
