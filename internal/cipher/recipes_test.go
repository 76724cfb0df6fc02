package cipher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testRecipe(name string) *Recipe {
	return &Recipe{
		Name:        name,
		Description: "Atbash wrapped in a Caesar shift",
		Tags:        []string{"layered", "example"},
		Chain: Chain{Steps: []Step{
			{Kind: KindAtbash},
			{Kind: KindCaesar, Params: Params{"shift": 3}},
		}},
	}
}

func TestRecipeManagerSaveAndGet(t *testing.T) {
	rm := NewRecipeManager("")
	rm.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	if err := rm.SaveRecipe(testRecipe("test-recipe")); err != nil {
		t.Fatalf("SaveRecipe failed: %v", err)
	}

	retrieved, exists := rm.GetRecipe("test-recipe")
	if !exists {
		t.Fatal("recipe should exist")
	}
	if retrieved.CreatedAt != "2024-05-01T12:00:00Z" || retrieved.UpdatedAt != retrieved.CreatedAt {
		t.Errorf("unexpected timestamps %q %q", retrieved.CreatedAt, retrieved.UpdatedAt)
	}
	if len(retrieved.Chain.Steps) != 2 {
		t.Errorf("expected 2 steps, got %d", len(retrieved.Chain.Steps))
	}
}

func TestRecipeManagerValidation(t *testing.T) {
	rm := NewRecipeManager("")

	if err := rm.SaveRecipe(&Recipe{}); err == nil {
		t.Error("expected error for empty name")
	}
	if err := rm.SaveRecipe(&Recipe{Name: "empty"}); err == nil {
		t.Error("expected error for recipe without steps")
	}
	bad := testRecipe("bad")
	bad.Chain.Steps[0].Kind = "vigenere"
	if err := rm.SaveRecipe(bad); err == nil {
		t.Error("expected error for unknown kind")
	}
	if err := rm.DeleteRecipe("missing"); err == nil {
		t.Error("expected error deleting a missing recipe")
	}
}

func TestRecipeManagerPersistence(t *testing.T) {
	dir := t.TempDir()
	rm := NewRecipeManager(dir)

	if err := rm.SaveRecipe(testRecipe("My Layered Recipe")); err != nil {
		t.Fatalf("SaveRecipe failed: %v", err)
	}

	path := filepath.Join(dir, "My_Layered_Recipe.yml")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("recipe file not written: %v", err)
	}

	loaded := NewRecipeManager(dir)
	if err := loaded.LoadRecipes(); err != nil {
		t.Fatalf("LoadRecipes failed: %v", err)
	}
	recipe, ok := loaded.GetRecipe("My Layered Recipe")
	if !ok {
		t.Fatal("recipe not loaded from disk")
	}
	shift, _, err := recipe.Chain.Steps[1].Params.Int("shift")
	if err != nil || shift != 3 {
		t.Errorf("expected shift 3 after reload, got %d (%v)", shift, err)
	}

	if err := loaded.DeleteRecipe("My Layered Recipe"); err != nil {
		t.Fatalf("DeleteRecipe failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("recipe file should be removed")
	}
}

func TestRecipeManagerRejectsFilenameCollisions(t *testing.T) {
	dir := t.TempDir()
	rm := NewRecipeManager(dir)

	if err := rm.SaveRecipe(testRecipe("a b")); err != nil {
		t.Fatalf("SaveRecipe failed: %v", err)
	}
	if err := rm.SaveRecipe(testRecipe("a_b")); err == nil {
		t.Fatal("expected error for a name sharing a file with an existing recipe")
	}
	if _, ok := rm.GetRecipe("a_b"); ok {
		t.Error("rejected recipe should not be stored")
	}
	// Re-saving under the same name is an update.
	if err := rm.SaveRecipe(testRecipe("a b")); err != nil {
		t.Fatalf("re-save failed: %v", err)
	}

	loaded := NewRecipeManager(dir)
	if err := loaded.LoadRecipes(); err != nil {
		t.Fatalf("LoadRecipes failed: %v", err)
	}
	if _, ok := loaded.GetRecipe("a b"); !ok {
		t.Error("original recipe should survive on disk")
	}
}

func TestRecipeManagerSkipsMapOnPersistFailure(t *testing.T) {
	// A regular file where the store directory should be makes every write fail.
	store := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(store, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	rm := NewRecipeManager(store)

	if err := rm.SaveRecipe(testRecipe("layered")); err == nil {
		t.Fatal("expected persist error")
	}
	if _, ok := rm.GetRecipe("layered"); ok {
		t.Error("recipe should not be kept in memory when the write failed")
	}
}

func TestRecipeManagerLoadRejectsBadYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.yml"), []byte("name: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("not a recipe"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := NewRecipeManager(dir).LoadRecipes(); err == nil {
		t.Error("expected parse error")
	}
}

func TestSearchRecipes(t *testing.T) {
	rm := NewRecipeManager("")
	for _, name := range []string{"alpha", "beta", "gamma"} {
		if err := rm.SaveRecipe(testRecipe(name)); err != nil {
			t.Fatal(err)
		}
	}
	plain := testRecipe("plain")
	plain.Description = "nothing special"
	plain.Tags = []string{"Morse"}
	if err := rm.SaveRecipe(plain); err != nil {
		t.Fatal(err)
	}

	if got := rm.SearchRecipes("LAYERED"); len(got) != 3 {
		t.Errorf("expected 3 matches by tag, got %d", len(got))
	}
	if got := rm.SearchRecipes("morse"); len(got) != 1 || got[0].Name != "plain" {
		t.Errorf("expected plain, got %v", got)
	}
	if got := rm.ListRecipes(); got[0].Name != "alpha" || len(got) != 4 {
		t.Errorf("ListRecipes not sorted: %v", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"simple":         "simple",
		"with spaces":    "with_spaces",
		"../../etc/pass": "etcpass",
		"!!!":            "recipe",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, expected %q", in, got, want)
		}
	}
}
