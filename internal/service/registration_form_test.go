package service

import (
	"testing"

	"github.com/afiliados-next/internal/models"
)

func baselineRegistration() *models.Registration {
	return &models.Registration{
		ID:               1,
		AffiliateID:      7,
		NomeAgente:       "Carlos Mendes",
		Whatsapp:         "+55 11 98877-6655",
		NomeProduto:      "Curso de Marketing",
		LinkPaginaVendas: "https://exemplo.com/vendas",
		DescricaoProduto: "Curso completo de marketing digital.",
		Checkout01:       "https://pay.x/1",
		VideosURLs:       models.StringArray{"https://cdn.x/a.mp4", "https://cdn.x/b.mp4"},
	}
}

func TestRegistrationUpdatesEmptyOnIdenticalInput(t *testing.T) {
	existing := baselineRegistration()
	input := normalizeRegistrationInput(RegistrationInput{
		NomeAgente:       "  Carlos Mendes ",
		WhatsApp:         "+55 11 98877-6655",
		NomeProduto:      "Curso de Marketing",
		LinkPaginaVendas: "https://exemplo.com/vendas",
		DescricaoProduto: "Curso completo de marketing digital.",
		Checkout01:       "https://pay.x/1",
		VideosURLs:       []string{"https://cdn.x/b.mp4", "https://cdn.x/a.mp4", "https://cdn.x/a.mp4"},
	})

	updates := registrationUpdates(existing, input)
	if len(updates) != 0 {
		t.Fatalf("expected empty diff, got %v", updates)
	}
}

func TestRegistrationUpdatesDetectsScalarAndCollectionChanges(t *testing.T) {
	existing := baselineRegistration()
	input := normalizeRegistrationInput(RegistrationInput{
		NomeAgente:       "Carlos Mendes",
		WhatsApp:         "+55 11 98877-6655",
		NomeProduto:      "Curso Avançado",
		LinkPaginaVendas: "https://exemplo.com/vendas",
		DescricaoProduto: "Curso completo de marketing digital.",
		Checkout01:       "https://pay.x/1",
		VideosURLs:       []string{"https://cdn.x/a.mp4"},
	})

	updates := registrationUpdates(existing, input)
	if len(updates) != 2 {
		t.Fatalf("expected 2 changed fields, got %v", updates)
	}
	if updates["nome_produto"] != "Curso Avançado" {
		t.Fatalf("expected nome_produto change, got %v", updates)
	}
	if _, ok := updates["videos_urls"]; !ok {
		t.Fatalf("expected videos_urls change, got %v", updates)
	}
}

func TestRegistrationUpdatesClearsOptionalField(t *testing.T) {
	existing := baselineRegistration()
	existing.Checkout02 = nullableString("https://pay.x/2")

	input := normalizeRegistrationInput(RegistrationInput{
		NomeAgente:       "Carlos Mendes",
		WhatsApp:         "+55 11 98877-6655",
		NomeProduto:      "Curso de Marketing",
		LinkPaginaVendas: "https://exemplo.com/vendas",
		DescricaoProduto: "Curso completo de marketing digital.",
		Checkout01:       "https://pay.x/1",
		VideosURLs:       []string{"https://cdn.x/a.mp4", "https://cdn.x/b.mp4"},
	})

	updates := registrationUpdates(existing, input)
	value, ok := updates["checkout_02"]
	if !ok {
		t.Fatalf("expected checkout_02 cleared, got %v", updates)
	}
	if cleared, isPtr := value.(*string); !isPtr || cleared != nil {
		t.Fatalf("expected checkout_02 set to NULL, got %v", value)
	}
}

func TestValidateRegistrationInputRequiresCheckout01(t *testing.T) {
	input := normalizeRegistrationInput(RegistrationInput{
		NomeAgente:       "Carlos Mendes",
		WhatsApp:         "+55 11 98877-6655",
		NomeProduto:      "Curso de Marketing",
		LinkPaginaVendas: "https://exemplo.com/vendas",
		DescricaoProduto: "Curso completo de marketing digital.",
		Checkout01:       "  ",
	})

	errs := validateRegistrationInput(input)
	if _, ok := errs["checkout_01"]; !ok {
		t.Fatalf("expected checkout_01 required error, got %v", errs)
	}

	input.Checkout01 = "not-a-url"
	errs = validateRegistrationInput(input)
	if _, ok := errs["checkout_01"]; !ok {
		t.Fatalf("expected checkout_01 format error, got %v", errs)
	}
}

func TestRemovedURLs(t *testing.T) {
	removed := removedURLs(
		[]string{"https://cdn.x/a.mp4", "https://cdn.x/b.mp4", "https://cdn.x/c.mp4"},
		[]string{"https://cdn.x/b.mp4"},
	)
	if len(removed) != 2 {
		t.Fatalf("expected 2 removed urls, got %v", removed)
	}
	if removed[0] != "https://cdn.x/a.mp4" || removed[1] != "https://cdn.x/c.mp4" {
		t.Fatalf("unexpected removed urls: %v", removed)
	}

	if got := removedURLs(nil, []string{"https://cdn.x/a.mp4"}); len(got) != 0 {
		t.Fatalf("expected no removals from empty baseline, got %v", got)
	}
}

func TestIsValidHTTPURL(t *testing.T) {
	valid := []string{"https://exemplo.com/x", "http://exemplo.com"}
	for _, raw := range valid {
		if !isValidHTTPURL(raw) {
			t.Fatalf("expected %q valid", raw)
		}
	}
	invalid := []string{"", "ftp://exemplo.com", "exemplo.com/x", "https://"}
	for _, raw := range invalid {
		if isValidHTTPURL(raw) {
			t.Fatalf("expected %q invalid", raw)
		}
	}
}
