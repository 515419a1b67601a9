package orders

type Status string

// Transaksi place-order hanya pernah menulis order COMPLETED;
// tidak ada order partial/pending yang dipersist.
const (
	StatusCompleted Status = "completed"
)
