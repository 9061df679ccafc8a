package server

import (
	"bytes"
	"crypto/subtle"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
)

var defaultWhitelist = []string{"/health"}

// ZstdMiddleware decompresses zstd request bodies and compresses responses
// for clients that accept zstd.
func ZstdMiddleware(whitelistedRoutes []string) fiber.Handler {
	if whitelistedRoutes == nil {
		whitelistedRoutes = defaultWhitelist
		log.Debug().
			Any("default", whitelistedRoutes).
			Msg("Whitelisted routes not specified, using default whitelist")
	}

	return func(c *fiber.Ctx) error {
		if slices.Contains(whitelistedRoutes, c.Path()) {
			return c.Next()
		}

		if strings.ToLower(c.Get(fiber.HeaderContentEncoding)) == "zstd" {
			body := c.Body()
			if len(body) > 0 {
				decoder, err := zstd.NewReader(bytes.NewReader(body))
				if err != nil {
					log.Err(err).Msg("Failed to create zstd decoder")
					return c.Status(fiber.StatusBadRequest).JSON(
						createResponse(map[string]any{}, fmt.Errorf("failed to decompress zstd data: %w", err)))
				}
				defer decoder.Close()

				decompressed, err := io.ReadAll(decoder)
				if err != nil {
					log.Err(err).Msg("Failed to decompress request")
					return c.Status(fiber.StatusBadRequest).JSON(
						createResponse(map[string]any{}, fmt.Errorf("failed to decompress zstd data: %w", err)))
				}

				c.Request().SetBody(decompressed)
				c.Request().Header.Del(fiber.HeaderContentEncoding)
				log.Trace().Int("size", len(decompressed)).Msg("Request body decompressed")
			}
		}

		if err := c.Next(); err != nil {
			return err
		}

		if strings.Contains(strings.ToLower(c.Get(fiber.HeaderAcceptEncoding)), "zstd") {
			responseBody := c.Response().Body()
			if len(responseBody) > 0 {
				encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
				if err != nil {
					log.Err(err).Msg("Failed to create zstd encoder")
					return nil
				}
				defer encoder.Close()

				compressed := encoder.EncodeAll(responseBody, nil)
				c.Response().SetBody(compressed)
				c.Set(fiber.HeaderContentEncoding, "zstd")
				c.Set(fiber.HeaderContentLength, fmt.Sprintf("%d", len(compressed)))

				log.Trace().
					Int("original_size", len(responseBody)).
					Int("compressed_size", len(compressed)).
					Msg("Response body compressed")
			}
		}

		return nil
	}
}

// APIKeyMiddleware rejects requests without the configured key in the
// x-api-key header. An empty key disables the check.
func APIKeyMiddleware(apiKey string, whitelistedRoutes []string) fiber.Handler {
	if whitelistedRoutes == nil {
		whitelistedRoutes = defaultWhitelist
	}

	return func(c *fiber.Ctx) error {
		if apiKey == "" || slices.Contains(whitelistedRoutes, c.Path()) {
			return c.Next()
		}

		got := c.Get(APIKeyHeader)
		if got == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(
				createResponse(map[string]any{}, fmt.Errorf("missing %s header", APIKeyHeader)))
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(apiKey)) != 1 {
			log.Warn().Str("path", c.Path()).Str("ip", c.IP()).Msg("rejected request with invalid api key")
			return c.Status(fiber.StatusForbidden).JSON(
				createResponse(map[string]any{}, fmt.Errorf("invalid api key")))
		}
		return c.Next()
	}
}
