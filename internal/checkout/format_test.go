package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hostingbot/internal/model"
	"hostingbot/internal/service"
)

func unpaidOrder(method model.PaymentMethod) *Result {
	return &Result{
		Order: &model.Order{
			Reference:     "ORD-20260831-ABC123",
			Amount:        50000,
			PaymentMethod: method,
			Status:        model.StatusPending,
		},
	}
}

func TestOrderCreated_ListsConfiguredAccounts(t *testing.T) {
	accounts := []service.PaymentAccount{
		{Method: model.PayBankTransfer, Label: "BCA a.n. Budi", Number: "1234567890"},
		{Method: model.PayBankTransfer, Label: "Mandiri a.n. Budi", Number: "9876543210"},
	}

	msg := OrderCreated(unpaidOrder(model.PayBankTransfer), "adminbudi", accounts)

	assert.Contains(t, msg, "BCA a.n. Budi")
	assert.Contains(t, msg, "`1234567890`")
	assert.Contains(t, msg, "Mandiri a.n. Budi")
	assert.Contains(t, msg, "/confirm_payment ORD-20260831-ABC123")
	assert.NotContains(t, msg, "Hubungi admin")
}

func TestOrderCreated_FallsBackToAdminContact(t *testing.T) {
	msg := OrderCreated(unpaidOrder(model.PayEWallet), "adminbudi", nil)

	assert.Contains(t, msg, "Hubungi admin @adminbudi")
	assert.Contains(t, msg, "/confirm_payment ORD-20260831-ABC123")
}

func TestOrderCreated_PaidFromBalanceSkipsInstructions(t *testing.T) {
	result := unpaidOrder(model.PayBalance)
	result.Paid = true

	msg := OrderCreated(result, "adminbudi", nil)

	assert.Contains(t, msg, "dibayar dari saldo")
	assert.NotContains(t, msg, "/confirm_payment")
}
