package cipher

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Recipe is a named, reusable decoding chain.
type Recipe struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Chain       Chain    `json:"chain" yaml:"chain"`
	CreatedAt   string   `json:"created_at" yaml:"created_at"`
	UpdatedAt   string   `json:"updated_at" yaml:"updated_at"`
}

const recipeExt = ".yml"

// RecipeManager handles storage and retrieval of recipes
type RecipeManager struct {
	recipes   map[string]*Recipe
	storePath string
	mu        sync.RWMutex
	now       func() time.Time
}

// NewRecipeManager creates a recipe manager. An empty storePath keeps
// recipes in memory only.
func NewRecipeManager(storePath string) *RecipeManager {
	return &RecipeManager{
		recipes:   make(map[string]*Recipe),
		storePath: storePath,
		now:       time.Now,
	}
}

// SaveRecipe stores a recipe
func (rm *RecipeManager) SaveRecipe(recipe *Recipe) error {
	if recipe == nil || recipe.Name == "" {
		return fmt.Errorf("recipe name cannot be empty")
	}
	if len(recipe.Chain.Steps) == 0 {
		return fmt.Errorf("recipe %s has no steps", recipe.Name)
	}
	for i, step := range recipe.Chain.Steps {
		kind, err := ParseKind(string(step.Kind))
		if err != nil {
			return fmt.Errorf("recipe %s step %d: %w", recipe.Name, i, err)
		}
		recipe.Chain.Steps[i].Kind = kind
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.storePath != "" {
		file := sanitizeFilename(recipe.Name)
		for name := range rm.recipes {
			if name != recipe.Name && sanitizeFilename(name) == file {
				return fmt.Errorf("recipe %s would share file %s%s with recipe %s", recipe.Name, file, recipeExt, name)
			}
		}
	}

	now := rm.now().UTC().Format(time.RFC3339)
	if recipe.CreatedAt == "" {
		recipe.CreatedAt = now
	}
	recipe.UpdatedAt = now

	if rm.storePath != "" {
		if err := rm.persistRecipe(recipe); err != nil {
			return err
		}
	}
	rm.recipes[recipe.Name] = recipe
	return nil
}

// GetRecipe retrieves a recipe by name
func (rm *RecipeManager) GetRecipe(name string) (*Recipe, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	recipe, exists := rm.recipes[name]
	return recipe, exists
}

// ListRecipes returns all recipes sorted by name
func (rm *RecipeManager) ListRecipes() []*Recipe {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	recipes := make([]*Recipe, 0, len(rm.recipes))
	for _, recipe := range rm.recipes {
		recipes = append(recipes, recipe)
	}
	sort.Slice(recipes, func(i, j int) bool {
		return recipes[i].Name < recipes[j].Name
	})
	return recipes
}

// DeleteRecipe removes a recipe
func (rm *RecipeManager) DeleteRecipe(name string) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if _, ok := rm.recipes[name]; !ok {
		return fmt.Errorf("recipe %s not found", name)
	}
	delete(rm.recipes, name)

	if rm.storePath != "" {
		recipePath := filepath.Join(rm.storePath, sanitizeFilename(name)+recipeExt)
		if err := os.Remove(recipePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete recipe file: %w", err)
		}
	}
	return nil
}

// LoadRecipes loads all recipes from the store path
func (rm *RecipeManager) LoadRecipes() error {
	if rm.storePath == "" {
		return nil
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if err := os.MkdirAll(rm.storePath, 0o755); err != nil {
		return fmt.Errorf("failed to create recipes directory: %w", err)
	}

	entries, err := os.ReadDir(rm.storePath)
	if err != nil {
		return fmt.Errorf("failed to read recipes directory: %w", err)
	}

	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != recipeExt && ext != ".yaml") {
			continue
		}

		recipePath := filepath.Join(rm.storePath, entry.Name())
		data, err := os.ReadFile(recipePath)
		if err != nil {
			return fmt.Errorf("failed to read recipe %s: %w", entry.Name(), err)
		}

		var recipe Recipe
		if err := yaml.Unmarshal(data, &recipe); err != nil {
			return fmt.Errorf("failed to parse recipe %s: %w", entry.Name(), err)
		}
		if recipe.Name == "" {
			return fmt.Errorf("recipe %s has no name", entry.Name())
		}

		rm.recipes[recipe.Name] = &recipe
	}
	return nil
}

// persistRecipe writes a single recipe to disk
func (rm *RecipeManager) persistRecipe(recipe *Recipe) error {
	if err := os.MkdirAll(rm.storePath, 0o755); err != nil {
		return fmt.Errorf("failed to create recipes directory: %w", err)
	}

	data, err := yaml.Marshal(recipe)
	if err != nil {
		return fmt.Errorf("failed to serialize recipe: %w", err)
	}

	recipePath := filepath.Join(rm.storePath, sanitizeFilename(recipe.Name)+recipeExt)
	if err := os.WriteFile(recipePath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write recipe file: %w", err)
	}
	return nil
}

// sanitizeFilename converts a recipe name to a safe filename
func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "recipe"
	}
	return b.String()
}

// SearchRecipes finds recipes whose name, description or tags contain
// query, ignoring case.
func (rm *RecipeManager) SearchRecipes(query string) []*Recipe {
	q := strings.ToLower(query)
	results := make([]*Recipe, 0)
	for _, recipe := range rm.ListRecipes() {
		if strings.Contains(strings.ToLower(recipe.Name), q) ||
			strings.Contains(strings.ToLower(recipe.Description), q) {
			results = append(results, recipe)
			continue
		}
		for _, tag := range recipe.Tags {
			if strings.Contains(strings.ToLower(tag), q) {
				results = append(results, recipe)
				break
			}
		}
	}
	return results
}
