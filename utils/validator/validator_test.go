package validatorx_test

import (
	"testing"

	"github.com/muhammadheryan/storefront/constant"
	"github.com/muhammadheryan/storefront/model"
	validatorx "github.com/muhammadheryan/storefront/utils/validator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validCreateRequest() model.CreateProductRequest {
	return model.CreateProductRequest{
		Name:         "Smartphone X",
		Description:  "A phone",
		Price:        decimal.RequireFromString("199.90"),
		Image:        "/images/phone.jpg",
		Category:     constant.CategoryElectronics,
		CountInStock: 3,
	}
}

func TestValidateStruct_CreateProduct(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *model.CreateProductRequest)
		wantErr bool
	}{
		{name: "valid", mutate: func(r *model.CreateProductRequest) {}},
		{name: "zero price allowed", mutate: func(r *model.CreateProductRequest) { r.Price = decimal.Zero }},
		{name: "negative price", mutate: func(r *model.CreateProductRequest) { r.Price = decimal.NewFromInt(-1) }, wantErr: true},
		{name: "unknown category", mutate: func(r *model.CreateProductRequest) { r.Category = "toys" }, wantErr: true},
		{name: "category with apostrophe", mutate: func(r *model.CreateProductRequest) { r.Category = constant.CategoryMensClothing }},
		{name: "missing image", mutate: func(r *model.CreateProductRequest) { r.Image = "" }, wantErr: true},
		{name: "negative stock", mutate: func(r *model.CreateProductRequest) { r.CountInStock = -1 }, wantErr: true},
		{name: "empty extra image", mutate: func(r *model.CreateProductRequest) { r.Images = []string{""} }, wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest()
			tt.mutate(&req)
			err := validatorx.ValidateStruct(&req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateStruct_UpdateProduct(t *testing.T) {
	negative := decimal.NewFromInt(-5)
	badCategory := constant.Category("garden")
	empty := ""

	assert.NoError(t, validatorx.ValidateStruct(&model.UpdateProductRequest{}))
	assert.Error(t, validatorx.ValidateStruct(&model.UpdateProductRequest{Price: &negative}))
	assert.Error(t, validatorx.ValidateStruct(&model.UpdateProductRequest{Category: &badCategory}))
	assert.Error(t, validatorx.ValidateStruct(&model.UpdateProductRequest{Name: &empty}))
}

func TestValidateStruct_Review(t *testing.T) {
	assert.NoError(t, validatorx.ValidateStruct(&model.ReviewRequest{Rating: 5, Comment: "great"}))
	assert.Error(t, validatorx.ValidateStruct(&model.ReviewRequest{Rating: 0, Comment: "meh"}))
	assert.Error(t, validatorx.ValidateStruct(&model.ReviewRequest{Rating: 6, Comment: "wow"}))
	assert.Error(t, validatorx.ValidateStruct(&model.ReviewRequest{Rating: 3}))
}
