package events

type BundleCreatedData struct {
	BundleID string   `json:"bundle_id"`
	OrderIDs []string `json:"order_ids"`
}

// BundleChangedData is the payload of bundle.unbundled and bundle.shipped.
type BundleChangedData struct {
	BundleID  string   `json:"bundle_id"`
	Succeeded []string `json:"succeeded"`
	Failed    []string `json:"failed,omitempty"`
}

type OrderCancelledData struct {
	OrderIDs []string `json:"order_ids"`
	BundleID string   `json:"bundle_id,omitempty"`
	Relist   bool     `json:"relist"`
}

// Recipient is a customer to notify about a shipment.
type Recipient struct {
	OrderID string `json:"order_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
}

// LabelData is the payload of label.purchased and label.unapplied. LabelID is
// the order or bundle id the label was bought against.
type LabelData struct {
	LabelID        string      `json:"label_id"`
	SellerID       string      `json:"seller_id,omitempty"`
	TrackingNumber string      `json:"tracking_number"`
	LabelURL       string      `json:"label_url"`
	Carrier        string      `json:"carrier,omitempty"`
	Service        string      `json:"service,omitempty"`
	Cost           string      `json:"cost"`
	OrderIDs       []string    `json:"order_ids"`
	Applied        []string    `json:"applied"`
	Failed         []string    `json:"failed,omitempty"`
	Recipients     []Recipient `json:"recipients,omitempty"`
}
