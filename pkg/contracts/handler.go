package contracts

import "github.com/julienschmidt/httprouter"

// Handler is anything that can mount its routes on an httprouter instance.
type Handler interface {
	RegisterRoutes(router *httprouter.Router)
}
