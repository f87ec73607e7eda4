package service

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/afiliados-next/internal/models"
)

const (
	registrationAgentNameMinLen   = 2
	registrationWhatsAppMinDigits = 10
	registrationDescriptionMinLen = 10
)

var whatsappDigitPattern = regexp.MustCompile(`[0-9]`)

// RegistrationInput 推广档案提交载荷
// 可选字段留空表示"未填写"，与空串等价
type RegistrationInput struct {
	NomeAgente       string   `json:"nome_agente"`
	WhatsApp         string   `json:"whatsapp"`
	NomeProduto      string   `json:"nome_produto"`
	LinkPaginaVendas string   `json:"link_pagina_vendas"`
	DescricaoProduto string   `json:"descricao_produto"`
	Checkout01       string   `json:"checkout_01"`
	Checkout02       string   `json:"checkout_02"`
	Checkout03       string   `json:"checkout_03"`
	Checkout04       string   `json:"checkout_04"`
	Checkout05       string   `json:"checkout_05"`
	LinkInstagram    string   `json:"link_instagram"`
	VideosURLs       []string `json:"videos_urls"`
	ImagensProduto   []string `json:"imagens_produto_urls"`
	ImagensProva     []string `json:"imagens_prova_social_urls"`
	Documentos       []string `json:"documentos_urls"`
}

func normalizeRegistrationInput(input RegistrationInput) RegistrationInput {
	input.NomeAgente = strings.TrimSpace(input.NomeAgente)
	input.WhatsApp = strings.TrimSpace(input.WhatsApp)
	input.NomeProduto = strings.TrimSpace(input.NomeProduto)
	input.LinkPaginaVendas = strings.TrimSpace(input.LinkPaginaVendas)
	input.DescricaoProduto = strings.TrimSpace(input.DescricaoProduto)
	input.Checkout01 = strings.TrimSpace(input.Checkout01)
	input.Checkout02 = strings.TrimSpace(input.Checkout02)
	input.Checkout03 = strings.TrimSpace(input.Checkout03)
	input.Checkout04 = strings.TrimSpace(input.Checkout04)
	input.Checkout05 = strings.TrimSpace(input.Checkout05)
	input.LinkInstagram = strings.TrimSpace(input.LinkInstagram)
	input.VideosURLs = normalizeURLCollection(input.VideosURLs)
	input.ImagensProduto = normalizeURLCollection(input.ImagensProduto)
	input.ImagensProva = normalizeURLCollection(input.ImagensProva)
	input.Documentos = normalizeURLCollection(input.Documentos)
	return input
}

func normalizeURLCollection(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	result := make([]string, 0, len(values))
	seen := map[string]struct{}{}
	for _, value := range values {
		text := strings.TrimSpace(value)
		if text == "" {
			continue
		}
		if _, exists := seen[text]; exists {
			continue
		}
		seen[text] = struct{}{}
		result = append(result, text)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

// validateRegistrationInput 校验已归一化的提交载荷
func validateRegistrationInput(input RegistrationInput) FieldErrors {
	errs := FieldErrors{}

	if input.NomeAgente == "" {
		errs["nome_agente"] = "agent name required"
	} else if utf8.RuneCountInString(input.NomeAgente) < registrationAgentNameMinLen {
		errs["nome_agente"] = "agent name too short"
	}

	if input.WhatsApp == "" {
		errs["whatsapp"] = "whatsapp required"
	} else if len(whatsappDigitPattern.FindAllString(input.WhatsApp, -1)) < registrationWhatsAppMinDigits {
		errs["whatsapp"] = "whatsapp number incomplete"
	}

	if input.NomeProduto == "" {
		errs["nome_produto"] = "product name required"
	}

	if input.LinkPaginaVendas == "" {
		errs["link_pagina_vendas"] = "sales page link required"
	} else if !isValidHTTPURL(input.LinkPaginaVendas) {
		errs["link_pagina_vendas"] = "invalid sales page link"
	}

	if input.DescricaoProduto == "" {
		errs["descricao_produto"] = "product description required"
	} else if utf8.RuneCountInString(input.DescricaoProduto) < registrationDescriptionMinLen {
		errs["descricao_produto"] = "product description too short"
	}

	if input.Checkout01 == "" {
		errs["checkout_01"] = "checkout link required"
	} else if !isValidHTTPURL(input.Checkout01) {
		errs["checkout_01"] = "invalid checkout link"
	}

	optionalLinks := map[string]string{
		"checkout_02":    input.Checkout02,
		"checkout_03":    input.Checkout03,
		"checkout_04":    input.Checkout04,
		"checkout_05":    input.Checkout05,
		"link_instagram": input.LinkInstagram,
	}
	for field, value := range optionalLinks {
		if value == "" {
			continue
		}
		if !isValidHTTPURL(value) {
			errs[field] = "invalid link"
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// nullableString 空串映射为 NULL
func nullableString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func stringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func isValidHTTPURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	return parsed.Host != ""
}

// registrationUpdates 计算提交载荷相对现有档案的变更字段
// 标量按归一化后的值比较，集合忽略顺序与重复项
func registrationUpdates(existing *models.Registration, input RegistrationInput) map[string]interface{} {
	updates := map[string]interface{}{}
	if existing == nil {
		return updates
	}

	scalars := []struct {
		column   string
		current  string
		incoming string
	}{
		{"nome_agente", existing.NomeAgente, input.NomeAgente},
		{"whatsapp", existing.Whatsapp, input.WhatsApp},
		{"nome_produto", existing.NomeProduto, input.NomeProduto},
		{"link_pagina_vendas", existing.LinkPaginaVendas, input.LinkPaginaVendas},
		{"descricao_produto", existing.DescricaoProduto, input.DescricaoProduto},
		{"checkout_01", existing.Checkout01, input.Checkout01},
	}
	for _, item := range scalars {
		if strings.TrimSpace(item.current) != item.incoming {
			updates[item.column] = item.incoming
		}
	}

	// 可选标量：留空视为缺省，变更为缺省时写 NULL
	optionals := []struct {
		column   string
		current  *string
		incoming string
	}{
		{"checkout_02", existing.Checkout02, input.Checkout02},
		{"checkout_03", existing.Checkout03, input.Checkout03},
		{"checkout_04", existing.Checkout04, input.Checkout04},
		{"checkout_05", existing.Checkout05, input.Checkout05},
		{"link_instagram", existing.LinkInstagram, input.LinkInstagram},
	}
	for _, item := range optionals {
		if strings.TrimSpace(stringValue(item.current)) != item.incoming {
			updates[item.column] = nullableString(item.incoming)
		}
	}

	collections := []struct {
		column   string
		current  models.StringArray
		incoming []string
	}{
		{"videos_urls", existing.VideosURLs, input.VideosURLs},
		{"imagens_produto_urls", existing.ImagensProdutoURLs, input.ImagensProduto},
		{"imagens_prova_social_urls", existing.ImagensProvaURLs, input.ImagensProva},
		{"documentos_urls", existing.DocumentosURLs, input.Documentos},
	}
	for _, item := range collections {
		if !sameURLSet(item.current, item.incoming) {
			updates[item.column] = models.StringArray(item.incoming)
		}
	}

	return updates
}

func sameURLSet(current []string, incoming []string) bool {
	a := normalizeURLCollection(current)
	b := normalizeURLCollection(incoming)
	if len(a) != len(b) {
		return false
	}
	sortedA := append([]string(nil), a...)
	sortedB := append([]string(nil), b...)
	sort.Strings(sortedA)
	sort.Strings(sortedB)
	for i := range sortedA {
		if sortedA[i] != sortedB[i] {
			return false
		}
	}
	return true
}

// removedURLs 返回存在于旧集合但不在新集合中的链接
func removedURLs(current []string, incoming []string) []string {
	keep := map[string]struct{}{}
	for _, value := range normalizeURLCollection(incoming) {
		keep[value] = struct{}{}
	}
	var removed []string
	for _, value := range normalizeURLCollection(current) {
		if _, exists := keep[value]; !exists {
			removed = append(removed, value)
		}
	}
	return removed
}
