/*
Package wallet provides the bounded wallet ledger used by each session.

A Ledger owns a single non-negative balance, in the smallest currency unit,
that never exceeds the configured maximum. It is hydrated once from a key-value
Store and written back after every state-changing operation:
- TopUp credits the fixed top-up amount when it fits under the ceiling
- AddFunds credits an arbitrary amount, clamping at the ceiling
- Deduct debits an amount, rejecting the whole debit when funds are short

Usage:

	// Open a ledger for the session
	ledger, err := wallet.Open(ctx, store, wallet.Config{MaxBalance: 5000, TopUpAmount: 1000})

	// Credit and debit
	res, err := ledger.AddFunds(ctx, 1500)
	debit, err := ledger.Deduct(ctx, 200)

	// Branch on the result, not on the error
	if !debit.Success {
	    // debit.Reason is ErrInsufficientFunds
	}

Error Handling:

Expected failures are results, not errors:
- ErrLimitExceeded: carried in TopUpResult.Reason when a top-up would pass the ceiling
- ErrInsufficientFunds: carried in DebitResult.Reason when a debit exceeds the balance

The error returned by a mutation is either nil or wraps ErrPersistence. In the
latter case the in-memory change was applied and the result is valid; storage
lags until the next successful write or Flush.

Registry:

A Registry hands out one Ledger per owner and keys each owner's balance as
"<StorageKey>:<owner>" in the shared store.
*/
package wallet
