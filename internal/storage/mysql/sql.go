package mysql

const hotelColumns = `hotel_key, external_id, name, description, star_rating,
  phone, email, website, address, city, region,
  min_price, max_price, currency, price_per_night,
  amenities, images, source, scraped_at`

const upsertHotelSQL = `
INSERT INTO hotels
  (` + hotelColumns + `)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  external_id     = VALUES(external_id),
  name            = VALUES(name),
  description     = VALUES(description),
  star_rating     = VALUES(star_rating),
  phone           = VALUES(phone),
  email           = VALUES(email),
  website         = VALUES(website),
  address         = VALUES(address),
  city            = VALUES(city),
  region          = VALUES(region),
  min_price       = VALUES(min_price),
  max_price       = VALUES(max_price),
  currency        = VALUES(currency),
  price_per_night = VALUES(price_per_night),
  amenities       = VALUES(amenities),
  images          = VALUES(images),
  source          = VALUES(source),
  scraped_at      = VALUES(scraped_at),
  updated_at      = CURRENT_TIMESTAMP
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const getHotelSQL = `SELECT ` + hotelColumns + ` FROM hotels WHERE hotel_key = ?`

// city compares under the table's case-insensitive collation.
const listHotelsSQL = `
SELECT ` + hotelColumns + `
FROM hotels
WHERE (? = '' OR city = ?)
ORDER BY city, name, hotel_key
LIMIT ?`
