// Package avatar loads, decodes and shapes the portrait images drawn on
// person cards.
//
// # Loading
//
// A [Loader] resolves every person's avatar reference concurrently before a
// draw pass starts, bounded by a concurrency limit:
//
//	l := avatar.NewLoader(avatar.WithFetcher(avatar.NewHTTPFetcher()))
//	set := l.LoadAll(ctx, tree.Persons())
//
// Each avatar succeeds or fails on its own. A missing reference, a failed
// fetch or an undecodable image yields the gender placeholder, so loading
// never fails as a whole and never blocks the draw.
//
// # Sources
//
// [HTTPFetcher] understands three kinds of reference:
//
//   - data:image/...;base64, inline images
//   - http and https URLs, fetched with retry and a per-host circuit breaker
//     and cached by URL
//   - relative file paths, resolved against a base directory
//
// PNG, JPEG, GIF and WebP are decoded.
//
// # Shaping
//
// Decoded images are cropped to a centered square, resized to the avatar
// size and clipped to a circle. [Desaturate] produces the greyed version
// drawn for deceased persons.
package avatar
