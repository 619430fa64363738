package database

import (
	"context"
	"fmt"

	"github.com/RigelNana/vitalicio/models"
	"github.com/RigelNana/vitalicio/repository"
)

// StarterMaterials is the catalog a fresh deployment starts with.
func StarterMaterials() []models.Material {
	return []models.Material{
		{
			Title:       "Jogo da Vida - O Método 10 em 1",
			Type:        models.TypeCourse,
			Category:    "Desenvolvimento Pessoal",
			Description: "A metodologia definitiva para dominar todas as áreas da sua vida e alcançar resultados extraordinários em tempo recorde.",
			ImageURL:    "https://images.unsplash.com/photo-1522202176988-66273c2fd55f?q=80&w=1471&auto=format&fit=crop",
			Views:       1240,
			Gradient:    "from-purple-600 via-pink-500 to-red-500",
		},
		{
			Title:       "SPR7 - Multiplicação de Riqueza",
			Type:        models.TypeCourse,
			Category:    "Finanças",
			Description: "Sete princípios fundamentais para reter e multiplicar sua riqueza através de investimentos inteligentes.",
			ImageURL:    "https://images.unsplash.com/photo-1579621970563-ebec7560ff3e?q=80&w=1471&auto=format&fit=crop",
			Views:       890,
			Gradient:    "from-orange-500 to-red-600",
		},
		{
			Title:       "Rico com Internet",
			Type:        models.TypeCourse,
			Category:    "Marketing",
			Description: "Descubra as estratégias ocultas que os grandes players usam para faturar milhões todos os meses.",
			ImageURL:    "https://images.unsplash.com/photo-1460925895917-afdab827c52f?q=80&w=1426&auto=format&fit=crop",
			Views:       5430,
			Gradient:    "from-green-500 to-emerald-700",
		},
		{
			Title:       "IP do Milhão",
			Type:        models.TypeCourse,
			Category:    "Finanças",
			Description: "Inteligência Patrimonial: O caminho para o primeiro milhão começando do zero absoluto.",
			ImageURL:    "https://images.unsplash.com/photo-1554224155-6726b3ff858f?q=80&w=1611&auto=format&fit=crop",
			Views:       3200,
			Gradient:    "from-yellow-400 to-orange-500",
		},
		{
			Title:       "SPR - Segredos dos Pequenos Ricos",
			Type:        models.TypeEbook,
			Category:    "Finanças",
			Description: "O livro digital que revela como pessoas comuns estão construindo fortunas silenciosamente.",
			ImageURL:    "https://images.unsplash.com/photo-1544716278-ca5e3f4abd8c?q=80&w=1374&auto=format&fit=crop",
			Views:       120,
			Gradient:    "from-pink-500 to-rose-700",
		},
		{
			Title:       "SPD - Sono e Produtividade",
			Type:        models.TypeCourse,
			Category:    "Produtividade",
			Description: "O equilíbrio perfeito entre alta performance e qualidade de vida.",
			ImageURL:    "https://images.unsplash.com/photo-1494438639946-1ebd1d20bf85?q=80&w=1467&auto=format&fit=crop",
			Views:       1560,
			Gradient:    "from-violet-500 to-purple-800",
		},
	}
}

// Seed inserts the starter catalog when the materials table is empty and
// reports how many rows were written.
func Seed(ctx context.Context, materials repository.MaterialRepository) (int, error) {
	count, err := materials.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count materials: %w", err)
	}
	if count > 0 {
		return 0, nil
	}
	seed := StarterMaterials()
	for i := range seed {
		if err := materials.Create(ctx, &seed[i]); err != nil {
			return i, fmt.Errorf("seed %q: %w", seed[i].Title, err)
		}
	}
	return len(seed), nil
}
