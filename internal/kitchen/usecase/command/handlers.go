package command

// Handlers holds every command handler of the kitchen
type Handlers struct {
	Register       *RegisterUserHandler
	Login          *LoginUserHandler
	VerifyToken    *VerifyTokenHandler
	CreateProduct  *CreateProductHandler
	UpdateProduct  *UpdateProductHandler
	Deactivate     *DeactivateProductHandler
	CreateMaterial *CreateMaterialHandler
	CreateSupplier *CreateSupplierHandler
	CreateOrder    *CreateOrderHandler
	UpdateStatus   *UpdateStatusHandler
	PlanMaterials  *PlanMaterialsHandler
	RawQC          *RawQCHandler
	CookedQC       *CookedQCHandler
	RiskPool       *RiskPoolTransferHandler
	FileDispute    *FileDisputeHandler
	ResolveDispute *ResolveDisputeHandler
	UseCredit      *UseCreditHandler
}

// NewHandlers builds all command handlers over deps
func NewHandlers(deps Deps) *Handlers {
	return &Handlers{
		Register:       NewRegisterUserHandler(deps),
		Login:          NewLoginUserHandler(deps),
		VerifyToken:    NewVerifyTokenHandler(deps),
		CreateProduct:  NewCreateProductHandler(deps),
		UpdateProduct:  NewUpdateProductHandler(deps),
		Deactivate:     NewDeactivateProductHandler(deps),
		CreateMaterial: NewCreateMaterialHandler(deps),
		CreateSupplier: NewCreateSupplierHandler(deps),
		CreateOrder:    NewCreateOrderHandler(deps),
		UpdateStatus:   NewUpdateStatusHandler(deps),
		PlanMaterials:  NewPlanMaterialsHandler(deps),
		RawQC:          NewRawQCHandler(deps),
		CookedQC:       NewCookedQCHandler(deps),
		RiskPool:       NewRiskPoolTransferHandler(deps),
		FileDispute:    NewFileDisputeHandler(deps),
		ResolveDispute: NewResolveDisputeHandler(deps),
		UseCredit:      NewUseCreditHandler(deps),
	}
}
