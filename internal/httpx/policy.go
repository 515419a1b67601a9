package httpx

// Role diambil dari header "role" (kontrak API lama). Cek capability
// dipusatkan di sini, bukan hand-rolled per endpoint.

type Action string

const (
	ActionManageCatalog Action = "catalog:manage"
	ActionPlaceOrder    Action = "order:place"
)

var policy = map[string]map[Action]bool{
	"admin": {ActionManageCatalog: true},
	"user":  {ActionPlaceOrder: true},
}

func Allow(role string, action Action) bool {
	return policy[role][action]
}
