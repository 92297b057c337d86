package validate_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/validate"
)

type signupInput struct {
	Username string `json:"username" validate:"required,alpha_dash,min=5,max=20"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
	Age      int    `json:"age"      validate:"required,min=3,max=110"`
	Website  string `json:"website"  validate:"nullable,url"`
}

func TestValidInput(t *testing.T) {
	errs := validate.Struct(signupInput{
		Username: "alice_01",
		Email:    "alice@example.com",
		Password: "Secret123",
		Age:      30,
	})
	if validate.HasErrors(errs) {
		t.Errorf("expected no errors, got: %v", errs)
	}
}

func TestRequiredFails(t *testing.T) {
	errs := validate.Struct(signupInput{})
	for _, f := range []string{"username", "email", "password", "age"} {
		if _, ok := errs[f]; !ok {
			t.Errorf("expected %s to be required", f)
		}
	}
	if _, ok := errs["website"]; ok {
		t.Error("nullable website should be skipped")
	}
}

func TestPasswordRule(t *testing.T) {
	type in struct {
		Password string `json:"password" validate:"password"`
	}
	for _, bad := range []string{"short1A", "alllower123", "ALLUPPER123", "NoDigitsHere"} {
		if errs := validate.Struct(in{bad}); !validate.HasErrors(errs) {
			t.Errorf("expected %q to be rejected", bad)
		}
	}
	if errs := validate.Struct(in{"Good1Pass"}); validate.HasErrors(errs) {
		t.Errorf("unexpected errors: %v", errs)
	}
}

func TestLengthAndBounds(t *testing.T) {
	type product struct {
		Name   string          `json:"name"   validate:"required,min=3,max=50"`
		Price  decimal.Decimal `json:"price"  validate:"gte=0"`
		Stock  int             `json:"stock"  validate:"gte=0"`
		Images []string        `json:"images" validate:"max=2"`
	}
	errs := validate.Struct(product{
		Name:   "ab",
		Price:  decimal.NewFromFloat(-1.5),
		Stock:  -2,
		Images: []string{"a", "b", "c"},
	})
	for _, f := range []string{"name", "price", "stock", "images"} {
		if _, ok := errs[f]; !ok {
			t.Errorf("expected error on %s, got %v", f, errs)
		}
	}
}

func TestInRule(t *testing.T) {
	type in struct {
		Category string `json:"category" validate:"required,in=Almacén Bebidas Varios"`
	}
	if errs := validate.Struct(in{"Bebidas"}); validate.HasErrors(errs) {
		t.Errorf("unexpected errors: %v", errs)
	}
	if errs := validate.Struct(in{"Juguetes"}); !validate.HasErrors(errs) {
		t.Error("expected category to be rejected")
	}
}
