package pages

const (
	Home          = "home"
	Nosotros      = "nosotros"
	Servicios     = "servicios"
	Publicaciones = "publicaciones"
	KDBWeb        = "kdbweb"
	Contacto      = "contacto"
	Productos     = "productos"
	Cookies       = "cookies"
	Terminos      = "terminos"
	Privacidad    = "privacidad"
)

// Keys are the pages carrying a visibility flag, in menu order.
var Keys = []string{
	Home,
	Nosotros,
	Servicios,
	Publicaciones,
	KDBWeb,
	Contacto,
	Productos,
	Cookies,
	Terminos,
	Privacidad,
}

// ContentPages are the pages whose blocks are editable from /config/page/{page}.
var ContentPages = []string{
	Home,
	Nosotros,
	Servicios,
	Productos,
	Publicaciones,
	KDBWeb,
	Cookies,
	Terminos,
	Privacidad,
}

func IsKnown(page string) bool {
	return contains(Keys, page)
}

func IsContentPage(page string) bool {
	return contains(ContentPages, page)
}

func contains(list []string, page string) bool {
	for _, p := range list {
		if p == page {
			return true
		}
	}
	return false
}
