package handlers

import (
	"net/url"
	"testing"

	"github.com/tbourn/foodgram-backend/internal/services"
)

func TestNewPage_LinksKeepFilters(t *testing.T) {
	u, _ := url.Parse("/api/recipes/?tags=lunch&page=2&limit=2")
	p := newPage(u, []int{1, 2}, 7, 2, 2)

	if p.Count != 7 || len(p.Results) != 2 {
		t.Fatalf("page: %+v", p)
	}
	if p.Next == nil || *p.Next != "/api/recipes/?limit=2&page=3&tags=lunch" {
		t.Fatalf("next=%v", p.Next)
	}
	if p.Previous == nil || *p.Previous != "/api/recipes/?limit=2&tags=lunch" {
		t.Fatalf("previous=%v", p.Previous)
	}

	last := newPage(u, []int{7}, 7, 4, 2)
	if last.Next != nil {
		t.Fatalf("last page must have no next: %v", *last.Next)
	}

	empty := newPage[int](u, nil, 0, 1, 2)
	if empty.Results == nil || empty.Next != nil || empty.Previous != nil {
		t.Fatalf("empty page: %+v", empty)
	}
}

func TestRecipeRequest_Input(t *testing.T) {
	req := RecipeRequest{
		Ingredients: []IngredientAmountRequest{{ID: "i1", Amount: 3}, {ID: "i2", Amount: 1}},
		Tags:        []string{"t1"},
		Name:        "Soup",
		Text:        "Boil.",
		CookingTime: 20,
	}
	in := req.input()
	if in.Name != "Soup" || in.CookingTime != 20 || len(in.TagIDs) != 1 {
		t.Fatalf("input: %+v", in)
	}
	if in.Ingredients[1] != (services.IngredientAmount{IngredientID: "i2", Amount: 1}) {
		t.Fatalf("lines keep order: %+v", in.Ingredients)
	}
}
