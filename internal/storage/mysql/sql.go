package mysql

const findHotelByPMSIDSQL = `
SELECT id, name, pms, pms_hotel_id
FROM hotels
WHERE pms_hotel_id = ?
`

const getHotelSQL = `
SELECT id, name, pms, pms_hotel_id
FROM hotels
WHERE id = ?
`

// Locking reads: the find-or-create decision holds the row (or the gap on
// the unique index) until the transaction ends.
const findGuestByPhoneSQL = `
SELECT id, name, phone, language
FROM guests
WHERE phone = ?
FOR UPDATE
`

const insertGuestSQL = `
INSERT INTO guests (name, phone, language)
VALUES (?, ?, ?)
`

const stayColumns = `id, hotel_id, guest_id, pms_reservation_id, pms_guest_id, status, checkin, checkout`

const getStaySQL = `SELECT ` + stayColumns + ` FROM stays WHERE id = ?`

const findStaySQL = `
SELECT ` + stayColumns + `
FROM stays
WHERE hotel_id = ? AND pms_reservation_id = ?
FOR UPDATE
`

const insertStaySQL = `
INSERT INTO stays
  (hotel_id, guest_id, pms_reservation_id, pms_guest_id, status, checkin, checkout)
VALUES
  (?, ?, ?, ?, ?, ?, ?)
`
