//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"

	"github.com/Shashankesi/Threadly/internal/cart"
	"github.com/Shashankesi/Threadly/internal/checkout"
	"github.com/Shashankesi/Threadly/internal/db"
	"github.com/Shashankesi/Threadly/internal/events"
	httpapi "github.com/Shashankesi/Threadly/internal/http"
	"github.com/Shashankesi/Threadly/internal/middleware"
	"github.com/Shashankesi/Threadly/internal/money"
	"github.com/Shashankesi/Threadly/internal/session"
	"github.com/Shashankesi/Threadly/internal/store"
)

func TestPostgresStore(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pgC, dsn := startPostgres(ctx, t)
	defer terminateContainer(t, pgC)

	logger := zaptest.NewLogger(t)
	require.NoError(t, db.RunMigrations(dsn, logger))
	// A second run finds nothing to apply.
	require.NoError(t, db.RunMigrations(dsn, logger))

	pool, err := db.NewPool(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	var version int64
	require.NoError(t, pool.QueryRow(ctx, "SELECT version FROM "+db.MigrationsTable).Scan(&version))
	require.EqualValues(t, 1, version)

	kv := store.NewPostgres(pool)

	carts := cart.NewStore(kv, logger)
	_, err = carts.Add(ctx, cart.Product{ID: "101", Name: "Casual Denim Jacket", Price: "₹4,999"}, "M")
	require.NoError(t, err)
	_, err = carts.Add(ctx, cart.Product{ID: "101", Name: "Casual Denim Jacket", Price: "₹4,999"}, "M")
	require.NoError(t, err)
	require.NoError(t, carts.SetQuantity(ctx, "101", "M", 3))

	// A fresh store over the same table sees what the first one wrote.
	reopened := cart.NewStore(store.NewPostgres(pool), logger)
	items, err := reopened.Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, 3, items[0].Quantity)

	subtotal, err := reopened.Subtotal(ctx)
	require.NoError(t, err)
	require.True(t, money.MustParse("14997").Equal(subtotal), subtotal.String())

	require.NoError(t, reopened.Clear(ctx))
	_, ok, err := kv.Get(ctx, store.KeyCart)
	require.NoError(t, err)
	require.False(t, ok)

	sess := session.New(kv, logger)
	name, err := sess.SignIn(ctx, "  Asha  ")
	require.NoError(t, err)
	require.Equal(t, "Asha", name)
	current, err := session.New(store.NewPostgres(pool), logger).Current(ctx)
	require.NoError(t, err)
	require.Equal(t, "Asha", current)
	require.NoError(t, sess.SignOut(ctx))

	// A half-applied migration stops startup until it is repaired.
	_, err = pool.Exec(ctx, "UPDATE "+db.MigrationsTable+" SET dirty = true")
	require.NoError(t, err)
	require.ErrorIs(t, db.RunMigrations(dsn, logger), db.ErrDirtySchema)
}

func TestCheckoutPublishesOrderPlaced(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	rabbitC, rabbitURL := startRabbitMQ(ctx, t)
	defer terminateContainer(t, rabbitC)

	logger := zaptest.NewLogger(t)

	conn, err := events.Dial(rabbitURL)
	require.NoError(t, err)
	defer conn.Close()

	publisher, err := events.NewPublisher(conn, events.DefaultProducer, logger)
	require.NoError(t, err)
	defer publisher.Close()

	deliveries := consumeOrderPlaced(t, conn)

	kv := store.NewMemory()
	handler := httpapi.NewHandler(httpapi.Deps{
		Cart:    cart.NewStore(kv, logger),
		Session: session.New(kv, logger),
		Logger:  logger,
		WizardOptions: []checkout.Option{
			checkout.WithPublisher(publisher),
			checkout.WithLogger(logger),
		},
	})
	srv := httptest.NewServer(httpapi.NewRouter(handler, nil))
	defer srv.Close()

	client := &http.Client{Timeout: 5 * time.Second}
	post(ctx, t, client, srv.URL+"/api/cart/items", `{"productId":"103","size":"UK 9"}`, http.StatusOK)
	post(ctx, t, client, srv.URL+"/api/checkout", ``, http.StatusCreated)
	post(ctx, t, client, srv.URL+"/api/checkout/shipping",
		`{"fullName":"Asha Rao","address1":"12 MG Road","city":"Bengaluru","state":"Karnataka","zip":"560001","country":"India","phone":"9876543210"}`,
		http.StatusOK)
	post(ctx, t, client, srv.URL+"/api/checkout/payment",
		`{"method":"card","cardNumber":"4111 1111 1111 1111","cardName":"ASHA RAO","expiry":"12/28","cvv":"123"}`,
		http.StatusOK)
	post(ctx, t, client, srv.URL+"/api/checkout/coupon", `{"code":"FLAT500"}`, http.StatusOK)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, srv.URL+"/api/checkout/order", nil)
	require.NoError(t, err)
	req.Header.Set(middleware.HeaderCorrelationID, "it-correlation")
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var receipt checkout.Receipt
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&receipt))

	select {
	case d := <-deliveries:
		require.Equal(t, "application/json", d.ContentType)
		require.Equal(t, "it-correlation", d.CorrelationId)

		var env events.OrderPlacedEnvelope
		require.NoError(t, json.Unmarshal(d.Body, &env))
		require.NoError(t, env.Validate(events.OrderPlacedEventName, events.OrderPlacedEventVersion))
		require.Equal(t, d.MessageId, env.EventID)
		require.Equal(t, receipt.OrderNumber, env.PartitionKey)
		require.Equal(t, "FLAT500", env.Payload.CouponCode)
		require.Equal(t, "Credit/Debit Card", env.Payload.PaymentMethod)
		require.Len(t, env.Payload.Items, 1)
		require.Equal(t, "UK 9", env.Payload.Items[0].Size)
		require.True(t, money.MustParse("8499").Equal(env.Payload.FinalTotal), env.Payload.FinalTotal.String())
	case <-ctx.Done():
		t.Fatal("timed out waiting for OrderPlaced")
	}
}

func consumeOrderPlaced(t *testing.T, conn *amqp.Connection) <-chan amqp.Delivery {
	t.Helper()

	ch, err := conn.Channel()
	require.NoError(t, err)
	t.Cleanup(func() { _ = ch.Close() })

	require.NoError(t, ch.ExchangeDeclare(events.EventsExchange, "topic", true, false, false, false, nil))
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, events.OrderPlacedRoutingKey, events.EventsExchange, false, nil))

	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)
	return deliveries
}

func post(ctx context.Context, t *testing.T, client *http.Client, url, body string, want int) {
	t.Helper()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, want, resp.StatusCode, url)
}

func startPostgres(ctx context.Context, t *testing.T) (testcontainers.Container, string) {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16",
		Env:          map[string]string{"POSTGRES_PASSWORD": "postgres", "POSTGRES_USER": "postgres", "POSTGRES_DB": "threadly"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://postgres:postgres@%s:%s/threadly?sslmode=disable", host, mappedPort.Port())
	return container, dsn
}

func startRabbitMQ(ctx context.Context, t *testing.T) (testcontainers.Container, string) {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "rabbitmq:3.13-alpine",
		ExposedPorts: []string{"5672/tcp"},
		WaitingFor:   wait.ForListeningPort("5672/tcp").WithStartupTimeout(90 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "5672/tcp")
	require.NoError(t, err)

	return container, fmt.Sprintf("amqp://guest:guest@%s:%s/", host, mappedPort.Port())
}

func terminateContainer(t *testing.T, c testcontainers.Container) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := c.Terminate(ctx); err != nil {
		t.Logf("terminate container: %v", err)
	}
}
