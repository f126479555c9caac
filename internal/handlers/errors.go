package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-booking/internal/httperr"
)

var conflictCodes = map[string]bool{
	"slot_unavailable":        true,
	"booking_busy":            true,
	"invalid_state":           true,
	"invalid_intent_state":    true,
	"payment_intent_not_paid": true,
	"commission_exists":       true,
}

var messages = map[string]string{
	"slot_unavailable":         "Horário indisponível.",
	"booking_busy":             "Agenda ocupada, tente novamente.",
	"invalid_state":            "Operação não permitida no estado atual.",
	"invalid_intent_state":     "Cobrança não pode ser alterada no estado atual.",
	"payment_intent_not_paid":  "Cobrança ainda não foi paga.",
	"commission_exists":        "Comissão já registrada.",
	"start_in_past":            "Horário no passado.",
	"outside_business_hours":   "Fora do horário de atendimento.",
	"service_inactive":         "Serviço indisponível.",
	"barber_inactive":          "Barbeiro indisponível.",
	"invalid_amount":           "Valor inválido.",
	"invalid_plan":             "Plano inválido.",
	"invalid_period":           "Período inválido.",
	"billing_provider_error":   "Falha ao comunicar com o provedor de pagamento.",
	"appointment_not_found":    "Agendamento não encontrado.",
	"service_not_found":        "Serviço não encontrado.",
	"barber_not_found":         "Barbeiro não encontrado.",
	"client_not_found":         "Cliente não encontrado.",
	"payment_intent_not_found": "Cobrança não encontrada.",
	"subscription_not_found":   "Assinatura não encontrada.",
	"settings_not_found":       "Configurações não encontradas.",
}

func statusFor(code string) int {
	switch {
	case strings.HasSuffix(code, "_not_found"):
		return http.StatusNotFound
	case conflictCodes[code]:
		return http.StatusConflict
	case code == "billing_provider_error":
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

// respondError maps use case errors onto the {error_code, message} body.
func respondError(c *gin.Context, err error) {
	be, ok := httperr.AsBusiness(err)
	if !ok {
		_ = c.Error(err)
		httperr.Internal(c, "internal_error", "Erro interno.")
		return
	}

	msg, ok := messages[be.Code]
	if !ok {
		msg = "Requisição inválida."
	}
	httperr.Write(c, statusFor(be.Code), be.Code, msg)
}
