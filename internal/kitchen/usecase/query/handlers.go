package query

import "github.com/tair/central-kitchen/internal/kitchen/domain"

// Handlers holds every query handler of the kitchen
type Handlers struct {
	GetOrder            *GetOrderHandler
	ListOrders          *ListOrdersHandler
	ListRawBatches      *ListRawBatchesHandler
	GetRawBatch         *GetRawBatchHandler
	ListConsumption     *ListConsumptionHandler
	ListWaste           *ListWasteHandler
	ListPendingCookedQC *ListPendingCookedQCHandler
	ListCookedBatches   *ListCookedBatchesHandler
	GetCookedBatch      *GetCookedBatchHandler
	StoreInventory      *StoreInventoryHandler
	KitchenInventory    *KitchenInventoryHandler
	SearchRiskPool      *SearchRiskPoolHandler
	ListCredits         *ListCreditsHandler
	ListCreditUsage     *ListCreditUsageHandler
	ListTransfers       *ListRiskPoolTransfersHandler
	GetDispute          *GetDisputeHandler
	ListOrderDisputes   *ListOrderDisputesHandler
	ListDisputes        *ListDisputesHandler
	ListProducts        *ListProductsHandler
	GetProduct          *GetProductHandler
	ListMaterials       *ListMaterialsHandler
	ListSuppliers       *ListSuppliersHandler
}

// NewHandlers builds all query handlers over store
func NewHandlers(store domain.Store, clock domain.Clock, policy domain.Policy) *Handlers {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &Handlers{
		GetOrder:            NewGetOrderHandler(store),
		ListOrders:          NewListOrdersHandler(store),
		ListRawBatches:      NewListRawBatchesHandler(store),
		GetRawBatch:         NewGetRawBatchHandler(store),
		ListConsumption:     NewListConsumptionHandler(store),
		ListWaste:           NewListWasteHandler(store),
		ListPendingCookedQC: NewListPendingCookedQCHandler(store),
		ListCookedBatches:   NewListCookedBatchesHandler(store),
		GetCookedBatch:      NewGetCookedBatchHandler(store),
		StoreInventory:      NewStoreInventoryHandler(store, clock),
		KitchenInventory:    NewKitchenInventoryHandler(store),
		SearchRiskPool:      NewSearchRiskPoolHandler(store, clock, policy),
		ListCredits:         NewListCreditsHandler(store),
		ListCreditUsage:     NewListCreditUsageHandler(store),
		ListTransfers:       NewListRiskPoolTransfersHandler(store),
		GetDispute:          NewGetDisputeHandler(store),
		ListOrderDisputes:   NewListOrderDisputesHandler(store),
		ListDisputes:        NewListDisputesHandler(store),
		ListProducts:        NewListProductsHandler(store),
		GetProduct:          NewGetProductHandler(store),
		ListMaterials:       NewListMaterialsHandler(store),
		ListSuppliers:       NewListSuppliersHandler(store),
	}
}
