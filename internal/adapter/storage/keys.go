package storage

// Keys names the persisted entries of a local store.
type Keys struct {
	Catalog string
	Counter string
	Profile string
}

func DefaultKeys() Keys {
	return Keys{
		Catalog: "menuCache",
		Counter: "order_counter",
		Profile: "user_profile",
	}
}

func (k Keys) profile(owner string) string {
	return k.Profile + ":" + owner
}
