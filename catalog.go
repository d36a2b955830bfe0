package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/egannguyen/jewellery-storefront/internal/entity"
	"github.com/egannguyen/jewellery-storefront/internal/repository"
)

var ringSizes = []string{"H", "I", "J", "K", "L", "M", "N", "O", "P", "Q", "R"}

var metals = entity.OptionGroup{
	Name:     entity.GroupMetal,
	Required: true,
	Values: []entity.OptionValue{
		{Name: "18ct Yellow Gold"},
		{Name: "18ct White Gold"},
		{Name: "18ct Rose Gold"},
		{Name: "Platinum", PriceDelta: 35000},
	},
}

func outOfStock() *bool {
	v := false
	return &v
}

// seedProducts loads the launch collection into an empty catalog.
func seedProducts(ctx context.Context, repo repository.ProductRepository) error {
	products := []entity.Product{
		{
			ID:          "prod-001",
			Title:       "Solitaire Engagement Ring",
			Slug:        "solitaire-engagement-ring",
			Description: "A single brilliant-cut diamond held in a six-claw setting.",
			BasePrice:   180000,
			Category:    "engagement-rings",
			ImageURL:    "https://images.unsplash.com/photo-1605100804763-247f67b3557e?w=400",
			OptionGroups: []entity.OptionGroup{
				metals,
				{Name: entity.GroupCut, Values: []entity.OptionValue{{Name: "Round Brilliant"}, {Name: "Oval", PriceDelta: 15000}, {Name: "Emerald", PriceDelta: 20000}}},
			},
			RingSizes: ringSizes,
		},
		{
			ID:          "prod-002",
			Title:       "Build Your Own Diamond Ring",
			Slug:        "build-your-own-diamond-ring",
			Description: "Choose the origin, weight, colour and clarity of your centre stone.",
			BasePrice:   95000,
			Category:    "engagement-rings",
			ImageURL:    "https://images.unsplash.com/photo-1603561591411-07134e71a2a9?w=400",
			OptionGroups: []entity.OptionGroup{
				metals,
				{Name: entity.GroupOrigin, Required: true, Values: []entity.OptionValue{{Name: "Lab Grown"}, {Name: "Natural", PriceDelta: 250000}}},
				{Name: entity.GroupCarat, Required: true, Values: []entity.OptionValue{{Name: "0.5"}, {Name: "1.0", PriceDelta: 120000}, {Name: "1.5", PriceDelta: 260000}, {Name: "2.0", PriceDelta: 480000}}},
				{Name: entity.GroupColour, Values: []entity.OptionValue{{Name: "H"}, {Name: "G", PriceDelta: 20000}, {Name: "F", PriceDelta: 45000}, {Name: "D", PriceDelta: 90000}}},
				{Name: entity.GroupClarity, Values: []entity.OptionValue{{Name: "SI1"}, {Name: "VS2", PriceDelta: 15000}, {Name: "VS1", PriceDelta: 30000}, {Name: "VVS1", PriceDelta: 70000}}},
				{Name: entity.GroupCertificate, Values: []entity.OptionValue{{Name: "IGI"}, {Name: "GIA", PriceDelta: 12000}}},
			},
			RingSizes: ringSizes,
		},
		{
			ID:          "prod-003",
			Title:       "Sapphire Halo Ring",
			Slug:        "sapphire-halo-ring",
			Description: "An oval sapphire framed by a halo of pavé diamonds.",
			BasePrice:   240000,
			Category:    "rings",
			ImageURL:    "https://images.unsplash.com/photo-1599643478518-a784e5dc4c8f?w=400",
			OptionGroups: []entity.OptionGroup{
				metals,
				{Name: entity.GroupStone, Required: true, Values: []entity.OptionValue{{Name: "Blue Sapphire"}, {Name: "Pink Sapphire", PriceDelta: 18000}, {Name: "Emerald", PriceDelta: 42000}}},
			},
			RingSizes: ringSizes,
		},
		{
			ID:           "prod-004",
			Title:        "Court Wedding Band",
			Slug:         "court-wedding-band",
			Description:  "A 3mm comfort-fit court band, polished inside and out.",
			BasePrice:    65000,
			Category:     "wedding-bands",
			ImageURL:     "https://images.unsplash.com/photo-1515562141207-7a88fb7ce338?w=400",
			OptionGroups: []entity.OptionGroup{metals},
			RingSizes:    ringSizes,
		},
		{
			ID:          "prod-005",
			Title:       "Freshwater Pearl Pendant",
			Slug:        "freshwater-pearl-pendant",
			Description: "A single freshwater pearl on an 18 inch trace chain.",
			BasePrice:   32000,
			Category:    "pendants",
			ImageURL:    "https://images.unsplash.com/photo-1599643477877-530eb83abc8e?w=400",
			OptionGroups: []entity.OptionGroup{
				{Name: entity.GroupMetal, Required: true, Values: []entity.OptionValue{{Name: "Sterling Silver"}, {Name: "9ct Yellow Gold", PriceDelta: 14000}}},
			},
		},
		{
			ID:          "prod-006",
			Title:       "Initial Disc Necklace",
			Slug:        "initial-disc-necklace",
			Description: "A hand-stamped disc, engraved with the letters of your choice.",
			BasePrice:   18500,
			Category:    "necklaces",
			ImageURL:    "https://images.unsplash.com/photo-1611085583191-a3b181a88401?w=400",
		},
		{
			ID:          "prod-007",
			Title:       "Diamond Stud Earrings",
			Slug:        "diamond-stud-earrings",
			Description: "Matched round brilliant studs in four-claw settings.",
			BasePrice:   89000,
			Category:    "earrings",
			ImageURL:    "https://images.unsplash.com/photo-1535632066927-ab7c9ab60908?w=400",
			OptionGroups: []entity.OptionGroup{
				{Name: entity.GroupMetal, Required: true, Values: []entity.OptionValue{{Name: "18ct White Gold"}, {Name: "Platinum", PriceDelta: 22000}}},
				{Name: entity.GroupCarat, Values: []entity.OptionValue{{Name: "0.25"}, {Name: "0.5", PriceDelta: 70000}, {Name: "1.0", PriceDelta: 210000}}},
			},
		},
		{
			ID:          "prod-008",
			Title:       "Art Deco Emerald Bracelet",
			Slug:        "art-deco-emerald-bracelet",
			Description: "One of a kind. Restored 1920s platinum line bracelet.",
			BasePrice:   1250000,
			Category:    "bracelets",
			ImageURL:    "https://images.unsplash.com/photo-1611591437281-460bfbe1220a?w=400",
			InStock:     outOfStock(),
		},
	}

	if err := repo.Seed(ctx, products); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}
	slog.Info("Catalog ready", "products", len(products))
	return nil
}
