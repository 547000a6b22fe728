package wsocket

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

// Handler receives one upgraded connection wrapped as a transport.Transport,
// wired for use by idchannel.NewWith or idchannel.Complete.
type Handler func(conn *Conn)

// Serve starts a fiber app with a single WebSocket route at path,
// calling handle with every accepted connection. It mirrors the
// teacher's pipe.go convention of a bare fiber.New() plus
// recover.New() plus a liveness endpoint, generalized from an HTTP
// pipeline frontend to a transport listener.
func Serve(addr, path string, handle Handler, logger *logrus.Logger) error {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	app.Use(path, func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get(path, websocket.New(func(raw *websocket.Conn) {
		conn := New(raw)
		defer conn.Close()

		logger.WithField("remote", raw.RemoteAddr().String()).Debug("wsocket: connection accepted")
		handle(conn)
	}))

	return app.Listen(addr)
}
