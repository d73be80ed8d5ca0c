package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/rental-contracts/internal/billing"
	"github.com/iliyamo/rental-contracts/internal/contract"
	"github.com/iliyamo/rental-contracts/internal/model"
)

func TestReduceDoesNotMutateInput(t *testing.T) {
	s := emptyState()
	next := Reduce(s, ContractLoaded{Contract: model.Contract{ID: "c1", Status: contract.StatusDraft}})
	assert.Empty(t, s.Contracts)
	assert.Contains(t, next.Contracts, "c1")
}

func TestReduceListReplacesOrder(t *testing.T) {
	s := Reduce(emptyState(), ContractsListed{Page: model.ContractPage{
		Items: []model.Contract{{ID: "a"}, {ID: "b"}}, Total: 7,
	}})
	assert.Equal(t, []string{"a", "b"}, s.ListOrder)
	assert.Equal(t, 7, s.ListTotal)

	s2 := Reduce(s, ContractsListed{Page: model.ContractPage{Items: []model.Contract{{ID: "c"}}, Total: 1}})
	assert.Equal(t, []string{"c"}, s2.ListOrder)
	assert.Equal(t, []string{"a", "b"}, s.ListOrder)
	assert.Len(t, s2.Contracts, 3)
}

func TestReduceSession(t *testing.T) {
	s := Reduce(emptyState(), SessionStarted{Token: "tok"})
	s = Reduce(s, ContractLoaded{Contract: model.Contract{ID: "c1"}})
	s = Reduce(s, SessionCleared{})
	assert.Empty(t, s.Token)
	assert.Empty(t, s.Contracts)
}

func TestStoreDispatchIsVisible(t *testing.T) {
	st := New()
	defer st.Close()

	st.Dispatch(SessionStarted{Token: "abc"})
	assert.Equal(t, "abc", st.Token())

	st.Dispatch(LoadingChanged{Key: "apply:c1", Loading: true})
	assert.True(t, st.Loading("apply:c1"))
	st.Dispatch(LoadingChanged{Key: "apply:c1", Loading: false})
	assert.False(t, st.Loading("apply:c1"))

	st.Dispatch(InvoiceCreated{ContractID: "c1", InvoiceID: "inv-1", Period: billing.Period{Month: 3, Year: 2025}})
	assert.Equal(t, "inv-1", st.LastInvoiceID())
	assert.Equal(t, billing.Period{Month: 3, Year: 2025}, st.Snapshot().Invoices["inv-1"])
}

func TestStoreConcurrentDispatch(t *testing.T) {
	st := New()
	defer st.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i%26))
			st.Dispatch(ContractLoaded{Contract: model.Contract{ID: id + "-" + string(rune('0'+i/26))}})
		}(i)
	}
	wg.Wait()
	assert.Len(t, st.Snapshot().Contracts, 50)
}

func TestStoreClosedDispatchReturns(t *testing.T) {
	st := New()
	st.Close()
	st.Close()
	st.Dispatch(SessionStarted{Token: "x"})
	_, ok := st.Contract("nope")
	require.False(t, ok)
}
